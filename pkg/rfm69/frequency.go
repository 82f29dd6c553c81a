package rfm69

import "math"

// FrequencyStep is the synthesizer step of the RFM69 in Hz (32 MHz / 2^19).
const FrequencyStep = 61.03515625

// DecodeFrequency converts the three FRF register bytes to a carrier frequency in Hz.
func DecodeFrequency(msb, mid, lsb byte) uint32 {
	frf := uint32(msb)<<16 | uint32(mid)<<8 | uint32(lsb)
	return uint32(math.Round(float64(frf) * FrequencyStep))
}

// EncodeFrequency lays out a frequency in Hz as the four little-endian bytes of the set frequency command.
func EncodeFrequency(hz uint32) [4]byte {
	var out [4]byte
	for i := range out {
		out[i] = byte(hz >> (8 * i))
	}
	return out
}

// Band describes a common ISM band the RFM69 variants are built for.
type Band struct {
	Name      string
	Frequency uint32
}

var (
	Band315MHz = Band{Name: "315MHz", Frequency: 315000000}
	Band433MHz = Band{Name: "433MHz", Frequency: 433000000}
	Band868MHz = Band{Name: "868MHz", Frequency: 868000000}
	Band915MHz = Band{Name: "915MHz", Frequency: 915000000}
)

// Bands lists the known presets.
var Bands = []Band{Band315MHz, Band433MHz, Band868MHz, Band915MHz}

// BandByName looks up a preset by name, e.g. "868MHz".
func BandByName(name string) (Band, bool) {
	for _, b := range Bands {
		if b.Name == name {
			return b, true
		}
	}
	return Band{}, false
}
