package rfm69

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeKey(t *testing.T) {
	key, err := DecodeKey("a1b2c3d4e5f6g7h8")
	require.NoError(t, err)
	require.Equal(t, []byte("a1b2c3d4e5f6g7h8"), key)

	key, err = DecodeKey("base64:YTFiMmMzZDRlNWY2ZzdoOA==")
	require.NoError(t, err)
	require.Equal(t, []byte("a1b2c3d4e5f6g7h8"), key)

	key, err = DecodeKey("")
	require.NoError(t, err)
	require.Nil(t, key)
}

func TestDecodeKeyInvalid(t *testing.T) {
	_, err := DecodeKey("too short")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = DecodeKey("base64:!!!")
	require.Error(t, err)

	_, err = DecodeKey("base64:c2hvcnQ=")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
