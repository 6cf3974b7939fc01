package limits

import (
	"errors"
	"testing"
)

// TestHeaderArithmetic verifies the ceilings against the header sizes
func TestHeaderArithmetic(t *testing.T) {
	if MaxIPv4DatagramPayload != 65535-IPv4HeaderSize-UDPHeaderSize {
		t.Errorf("MaxIPv4DatagramPayload = %d, want %d", MaxIPv4DatagramPayload, 65535-IPv4HeaderSize-UDPHeaderSize)
	}
	if MaxIPv6DatagramPayload != 65535-UDPHeaderSize {
		t.Errorf("MaxIPv6DatagramPayload = %d, want %d", MaxIPv6DatagramPayload, 65535-UDPHeaderSize)
	}
	if MaxDatagramPayload(false) != MaxIPv4DatagramPayload {
		t.Errorf("MaxDatagramPayload(false) = %d", MaxDatagramPayload(false))
	}
	if MaxDatagramPayload(true) != MaxIPv6DatagramPayload {
		t.Errorf("MaxDatagramPayload(true) = %d", MaxDatagramPayload(true))
	}
}

// TestValidateDatagramPayload tests the per-version datagram validation
func TestValidateDatagramPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		ipv6    bool
		wantErr error
	}{
		{
			name:    "nil payload",
			payload: nil,
			wantErr: nil,
		},
		{
			name:    "empty payload",
			payload: []byte{},
			wantErr: nil,
		},
		{
			name:    "max IPv4 payload",
			payload: make([]byte, MaxIPv4DatagramPayload),
			wantErr: nil,
		},
		{
			name:    "IPv4 payload too large",
			payload: make([]byte, MaxIPv4DatagramPayload+1),
			wantErr: ErrPayloadTooLarge,
		},
		{
			name:    "IPv6 accepts payload above IPv4 ceiling",
			payload: make([]byte, MaxIPv4DatagramPayload+1),
			ipv6:    true,
			wantErr: nil,
		},
		{
			name:    "IPv6 payload too large",
			payload: make([]byte, MaxIPv6DatagramPayload+1),
			ipv6:    true,
			wantErr: ErrPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatagramPayload(tt.payload, tt.ipv6)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDatagramPayload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidatePayloadSize tests the generic size validation function
func TestValidatePayloadSize(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		maxSize int
		wantErr error
	}{
		{
			name:    "empty payload",
			payload: []byte{},
			maxSize: 100,
			wantErr: nil,
		},
		{
			name:    "payload at exact limit",
			payload: make([]byte, 100),
			maxSize: 100,
			wantErr: nil,
		},
		{
			name:    "payload exceeds limit",
			payload: make([]byte, 101),
			maxSize: 100,
			wantErr: ErrPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayloadSize(tt.payload, tt.maxSize)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePayloadSize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// BenchmarkValidateDatagramPayload benchmarks datagram validation performance
func BenchmarkValidateDatagramPayload(b *testing.B) {
	payload := make([]byte, MaxIPv4DatagramPayload)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateDatagramPayload(payload, false)
	}
}
