package rfm69

import (
	"context"
	"fmt"
)

// State is a snapshot of the session and the radio.
type State struct {
	Connected     bool
	Address       uint8
	NetworkID     uint8
	ChipSelectPin uint8
	InterruptPin  uint8
	Encrypted     bool
	Frequency     uint32
	RSSI          int
}

// Status probes the device and collects its current state.
// Nothing beyond the presence check is queried when the device is not connected.
func (d *Device) Status(ctx context.Context) (State, error) {
	state := State{
		Address:       d.Address(),
		NetworkID:     d.NetworkID(),
		ChipSelectPin: d.ChipSelectPin(),
		InterruptPin:  d.InterruptPin(),
		Encrypted:     d.Encrypted(),
	}

	state.Connected = d.IsConnected(ctx)
	if !state.Connected {
		return state, nil
	}

	freq, err := d.Frequency(ctx)
	if err != nil {
		return state, fmt.Errorf("failed to read frequency: %w", err)
	}
	state.Frequency = freq

	rssi, err := d.RSSI(ctx, false)
	if err != nil {
		return state, fmt.Errorf("failed to read RSSI: %w", err)
	}
	state.RSSI = rssi
	return state, nil
}
