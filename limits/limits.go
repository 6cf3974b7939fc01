// Package limits provides the datagram payload ceilings enforced before a
// datagram is handed to the kernel.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxIPv4DatagramPayload is the largest UDP payload over IPv4:
	// 65535 minus the 20-byte IPv4 header and the 8-byte UDP header.
	MaxIPv4DatagramPayload = 65507

	// MaxIPv6DatagramPayload is the largest UDP payload over IPv6 without
	// jumbograms: 65535 minus the 8-byte UDP header. The IPv6 header is not
	// counted in the payload length field.
	MaxIPv6DatagramPayload = 65527

	// UDPHeaderSize is the size of the UDP header.
	UDPHeaderSize = 8

	// IPv4HeaderSize is the size of an IPv4 header without options.
	IPv4HeaderSize = 20
)

// ErrPayloadTooLarge indicates a payload that cannot fit in one datagram.
var ErrPayloadTooLarge = errors.New("payload too large")

// MaxDatagramPayload returns the payload ceiling for the IP version.
func MaxDatagramPayload(ipv6 bool) int {
	if ipv6 {
		return MaxIPv6DatagramPayload
	}
	return MaxIPv4DatagramPayload
}

// ValidatePayloadSize checks payload against maxSize. Empty payloads are
// valid: a zero-length datagram is a legitimate message.
func ValidatePayloadSize(payload []byte, maxSize int) error {
	if len(payload) > maxSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrPayloadTooLarge, len(payload), maxSize)
	}
	return nil
}

// ValidateDatagramPayload checks payload against the ceiling of the IP
// version it will be sent over.
func ValidateDatagramPayload(payload []byte, ipv6 bool) error {
	limit := MaxDatagramPayload(ipv6)
	if len(payload) > limit {
		version := "IPv4"
		if ipv6 {
			version = "IPv6"
		}
		return fmt.Errorf("%w: %s datagram size %d exceeds limit %d", ErrPayloadTooLarge, version, len(payload), limit)
	}
	return nil
}
