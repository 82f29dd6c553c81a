package rfm69

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFrequency(t *testing.T) {
	require.Equal(t, uint32(915000000), DecodeFrequency(0xE4, 0xC0, 0x00))
	require.Equal(t, uint32(0), DecodeFrequency(0, 0, 0))
	require.Equal(t, uint32(61), DecodeFrequency(0, 0, 1))
}

func TestEncodeFrequency(t *testing.T) {
	require.Equal(t, [4]byte{0xC0, 0xCA, 0x89, 0x36}, EncodeFrequency(915000000))
	require.Equal(t, [4]byte{0, 0, 0, 0}, EncodeFrequency(0))
}

func TestFrequencyRoundTrip(t *testing.T) {
	for _, band := range Bands {
		msb, mid, lsb := frfBytes(band.Frequency)
		require.InDeltaf(t, float64(band.Frequency), float64(DecodeFrequency(msb, mid, lsb)), FrequencyStep, "band %s", band.Name)
	}
}

func TestBandByName(t *testing.T) {
	band, ok := BandByName("433MHz")
	require.True(t, ok)
	require.Equal(t, Band433MHz, band)

	_, ok = BandByName("2.4GHz")
	require.False(t, ok)
}

// frfBytes converts a frequency in Hz to the FRF register bytes the way the firmware programs the radio.
func frfBytes(hz uint32) (msb, mid, lsb byte) {
	frf := uint32(math.Round(float64(hz) / FrequencyStep))
	return byte(frf >> 16), byte(frf >> 8), byte(frf)
}
