// Package limits provides the datagram size constants and validation
// functions shared by the socket layer.
//
// # Datagram Size Ceilings
//
//   - MaxIPv4DatagramPayload (65507 bytes): 65535 less the IPv4 and UDP headers.
//   - MaxIPv6DatagramPayload (65527 bytes): 65535 less the UDP header; the IPv6
//     payload length field does not cover the fixed IPv6 header.
//
// # Validation Functions
//
//	err := limits.ValidateDatagramPayload(payload, false)
//	if errors.Is(err, limits.ErrPayloadTooLarge) {
//	    // reject before calling sendto(2)
//	}
//
// For custom ceilings use ValidatePayloadSize. Unlike a message protocol, a
// datagram may be empty, so no function rejects zero-length input.
package limits
