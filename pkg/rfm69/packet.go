package rfm69

import (
	"fmt"
	"unicode/utf8"
)

// MaxSenderAddress is the highest address a transmitting node can report.
const MaxSenderAddress = 254

// Packet is a message received from another node. It is immutable once created.
type Packet struct {
	sender  uint8
	payload []byte
}

// NewPacket creates a packet from a sender address and its payload.
// The payload is copied.
func NewPacket(sender int, payload []byte) (*Packet, error) {
	if sender < 0 || sender > MaxSenderAddress {
		return nil, invalidArg("sender", "must be within 0..%d, got %d", MaxSenderAddress, sender)
	}
	if len(payload) > MaxPayloadLen {
		return nil, invalidArg("payload", "is %d bytes long, at most %d allowed", len(payload), MaxPayloadLen)
	}
	return &Packet{
		sender:  uint8(sender),
		payload: append([]byte(nil), payload...),
	}, nil
}

// Sender returns the address of the transmitting node.
func (p *Packet) Sender() uint8 {
	return p.sender
}

// Payload returns a copy of the received bytes in arrival order.
func (p *Packet) Payload() []byte {
	return append([]byte(nil), p.payload...)
}

// Len returns the payload length.
func (p *Packet) Len() int {
	return len(p.payload)
}

// Text decodes the payload as UTF-8 text.
// Each payload byte is treated as one UTF-8 code unit; ASCII payloads map one byte to one character.
func (p *Packet) Text() (string, error) {
	if !utf8.Valid(p.payload) {
		return "", ErrNotText
	}
	return string(p.payload), nil
}

// Values returns the payload as integer byte values.
func (p *Packet) Values() []int {
	values := make([]int, len(p.payload))
	for i, b := range p.payload {
		values[i] = int(b)
	}
	return values
}

// String implements fmt.Stringer.
func (p *Packet) String() string {
	if text, err := p.Text(); err == nil {
		return fmt.Sprintf("from %d: %q", p.sender, text)
	}
	return fmt.Sprintf("from %d: % X", p.sender, p.payload)
}
