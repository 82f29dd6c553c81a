package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/exepirit/rfm69serial/pkg/rfm69"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Format selects how envelopes are serialized.
type Format string

const (
	FormatProtobuf Format = "protobuf"
	FormatJSON     Format = "json"
)

// ParseFormat validates a configured format name. Empty selects FormatProtobuf.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatProtobuf:
		return FormatProtobuf, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown envelope format %q", s)
	}
}

// Envelope wraps a received radio packet for publication.
//
// Protobuf layout:
//
//	message Envelope {
//	  string id = 1;
//	  uint32 gateway = 2;
//	  uint32 sender = 3;
//	  bytes payload = 4;
//	  int64 received_at_ms = 5;
//	}
type Envelope struct {
	ID         string    `json:"id"`
	Gateway    uint8     `json:"gateway"`
	Sender     uint8     `json:"sender"`
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

const (
	fieldID protowire.Number = iota + 1
	fieldGateway
	fieldSender
	fieldPayload
	fieldReceivedAt
)

// NewEnvelope wraps a packet received by the gateway node.
func NewEnvelope(gateway uint8, packet *rfm69.Packet, receivedAt time.Time) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Gateway:    gateway,
		Sender:     packet.Sender(),
		Payload:    packet.Payload(),
		ReceivedAt: receivedAt,
	}
}

// Marshal serializes the envelope.
func (e Envelope) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.Marshal(e)
	case FormatProtobuf, "":
		var b []byte
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendString(b, e.ID)
		b = protowire.AppendTag(b, fieldGateway, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Gateway))
		b = protowire.AppendTag(b, fieldSender, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Sender))
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, e.Payload)
		b = protowire.AppendTag(b, fieldReceivedAt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.ReceivedAt.UnixMilli()))
		return b, nil
	default:
		return nil, fmt.Errorf("unknown envelope format %q", format)
	}
}

// UnmarshalEnvelope decodes a protobuf encoded envelope. Unknown fields are skipped.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Envelope{}, ErrInvalidEnvelope
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Envelope{}, ErrInvalidEnvelope
			}
			e.ID, b = v, b[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Envelope{}, ErrInvalidEnvelope
			}
			e.Payload, b = append([]byte(nil), v...), b[n:]
		case typ == protowire.VarintType && num >= fieldGateway && num <= fieldReceivedAt:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Envelope{}, ErrInvalidEnvelope
			}
			b = b[n:]
			switch num {
			case fieldGateway:
				e.Gateway = uint8(v)
			case fieldSender:
				e.Sender = uint8(v)
			case fieldReceivedAt:
				e.ReceivedAt = time.UnixMilli(int64(v))
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Envelope{}, ErrInvalidEnvelope
			}
			b = b[n:]
		}
	}
	return e, nil
}
