package rfm69

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// KeySize is the AES-128 key length the radio expects.
const KeySize = 16

const base64KeyPrefix = "base64:"

// DecodeKey parses an encryption key from configuration.
// Keys prefixed with "base64:" are decoded; anything else is taken as raw characters.
// An empty string yields a nil key, which disables encryption.
func DecodeKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if encoded, ok := strings.CutPrefix(s, base64KeyPrefix); ok {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode base64 key: %w", err)
		}
		return key, validateKey(key)
	}
	key := []byte(s)
	return key, validateKey(key)
}

func validateKey(key []byte) error {
	if len(key) != 0 && len(key) != KeySize {
		return invalidArg("key", "must be empty or %d bytes long, got %d", KeySize, len(key))
	}
	return nil
}
