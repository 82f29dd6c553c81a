package rfm69

// MaxPayloadLen is the largest payload a single length-prefixed frame can carry.
const MaxPayloadLen = 255

type payloadKind uint8

const (
	payloadBytes payloadKind = iota
	payloadText
)

// Payload is an outbound message body. It is built either from text or from raw bytes;
// both forms lower to the same length-prefixed wire encoding.
type Payload struct {
	kind payloadKind
	text string
	data []byte
}

// Text creates a payload from a string. The wire form is the string's UTF-8 bytes,
// which for ASCII text is one byte per character.
func Text(s string) Payload {
	return Payload{kind: payloadText, text: s}
}

// Bytes creates a payload from raw byte values.
func Bytes(b []byte) Payload {
	return Payload{kind: payloadBytes, data: b}
}

// Len returns the encoded length in bytes.
func (p Payload) Len() int {
	if p.kind == payloadText {
		return len(p.text)
	}
	return len(p.data)
}

// appendTo appends the length byte followed by the payload bytes.
func (p Payload) appendTo(frame []byte) ([]byte, error) {
	n := p.Len()
	if n > MaxPayloadLen {
		return nil, invalidArg("payload", "is %d bytes long, at most %d allowed", n, MaxPayloadLen)
	}
	frame = append(frame, byte(n))
	if p.kind == payloadText {
		return append(frame, p.text...), nil
	}
	return append(frame, p.data...), nil
}
