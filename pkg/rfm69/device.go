package rfm69

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/exepirit/rfm69serial/internal/log"
)

const (
	// DefaultAddress is substituted for an invalid node address in compatibility mode.
	DefaultAddress = 1
	// DefaultNetworkID is substituted for an invalid network id in compatibility mode.
	DefaultNetworkID = 101
	// MaxPin is the highest pin number the firmware accepts.
	MaxPin = 254
)

// Config holds the node identity pushed to the firmware during the handshake.
type Config struct {
	Address       uint8
	NetworkID     uint8
	ChipSelectPin uint8
	InterruptPin  uint8

	// Retry bounds the initialization handshake.
	Retry RetryPolicy
	// CompatDefaults substitutes DefaultAddress, DefaultNetworkID and a disabled encryption
	// for invalid input instead of rejecting it with an ArgumentError.
	CompatDefaults bool
	// Logger receives protocol traces. Nil disables logging.
	Logger log.Logger
}

// DefaultConfig returns the configuration most bridge sketches are flashed with.
func DefaultConfig() Config {
	return Config{
		Address:       DefaultAddress,
		NetworkID:     DefaultNetworkID,
		ChipSelectPin: 0,
		InterruptPin:  1,
		Retry:         DefaultRetryPolicy(),
	}
}

// Device is a session with an RFM69 module driven through a serial bridge firmware.
// Every operation is one request/response exchange; concurrent calls are serialized.
type Device struct {
	transport Transport
	logger    log.Logger
	compat    bool

	lock      sync.Mutex
	address   uint8
	networkID uint8
	csPin     uint8
	irqPin    uint8
	encrypted bool
	key       []byte
}

// Open initializes the module behind transport. The init command is retried according to
// cfg.Retry; when the budget runs out ErrDeviceUnresponsive is returned.
func Open(ctx context.Context, transport Transport, cfg Config) (*Device, error) {
	d := &Device{
		transport: transport,
		logger:    log.OrNOOP(cfg.Logger),
		compat:    cfg.CompatDefaults,
	}

	address, err := d.nodeAddress(cfg.Address)
	if err != nil {
		return nil, err
	}
	networkID, err := d.networkIdentifier(cfg.NetworkID)
	if err != nil {
		return nil, err
	}
	if err := validatePin("chip select pin", cfg.ChipSelectPin); err != nil {
		return nil, err
	}
	if err := validatePin("interrupt pin", cfg.InterruptPin); err != nil {
		return nil, err
	}

	args := []byte{address, networkID, cfg.ChipSelectPin, cfg.InterruptPin}
	attempts := 0
	ok, err := cfg.Retry.Do(ctx, func() bool {
		attempts++
		err := d.transaction(ctx, OpInit, args, nil)
		if err != nil {
			d.logger.Debug("Handshake attempt failed", "attempt", attempts, "error", err)
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		d.logger.Error("Device did not answer handshake", "attempts", attempts)
		return nil, fmt.Errorf("%w: no handshake after %d attempts", ErrDeviceUnresponsive, attempts)
	}

	d.address = address
	d.networkID = networkID
	d.csPin = cfg.ChipSelectPin
	d.irqPin = cfg.InterruptPin
	d.logger.Info("Device initialized",
		"address", address, "networkID", networkID, "attempts", attempts)
	return d, nil
}

// Address returns the node address acknowledged by the firmware.
func (d *Device) Address() uint8 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.address
}

// NetworkID returns the network id acknowledged by the firmware.
func (d *Device) NetworkID() uint8 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.networkID
}

// ChipSelectPin returns the SPI chip select pin acknowledged by the firmware.
func (d *Device) ChipSelectPin() uint8 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.csPin
}

// InterruptPin returns the DIO0 interrupt pin acknowledged by the firmware.
func (d *Device) InterruptPin() uint8 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.irqPin
}

// Encrypted reports whether encryption was last enabled on the module.
func (d *Device) Encrypted() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.encrypted
}

// EncryptionKey returns a copy of the active key, or nil when encryption is off.
func (d *Device) EncryptionKey() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	if !d.encrypted {
		return nil
	}
	return append([]byte(nil), d.key...)
}

// SetAddress changes the node address.
func (d *Device) SetAddress(ctx context.Context, address uint8) error {
	address, err := d.nodeAddress(address)
	if err != nil {
		return err
	}
	return d.transaction(ctx, OpSetAddress, []byte{address}, func() error {
		d.address = address
		return nil
	})
}

// SetNetworkID changes the network the node participates in.
func (d *Device) SetNetworkID(ctx context.Context, networkID uint8) error {
	networkID, err := d.networkIdentifier(networkID)
	if err != nil {
		return err
	}
	return d.transaction(ctx, OpSetNetworkID, []byte{networkID}, func() error {
		d.networkID = networkID
		return nil
	})
}

// Send transmits a message to target, optionally requesting an acknowledgement from the receiver.
func (d *Device) Send(ctx context.Context, target uint8, msg Payload, requestACK bool) error {
	frame, err := msg.appendTo([]byte{target, boolByte(requestACK)})
	if err != nil {
		return err
	}
	return d.transaction(ctx, OpSend, frame, nil)
}

// SendWithRetry transmits a message and lets the firmware retry up to retries times,
// waiting timeoutMs milliseconds for the acknowledgement of each attempt.
func (d *Device) SendWithRetry(ctx context.Context, target uint8, msg Payload, retries, timeoutMs uint8) error {
	frame, err := msg.appendTo([]byte{target, retries, timeoutMs})
	if err != nil {
		return err
	}
	return d.transaction(ctx, OpSendWithRetry, frame, nil)
}

// BeginReceive switches the radio to RX mode.
func (d *Device) BeginReceive(ctx context.Context) error {
	return d.transaction(ctx, OpBeginReceive, nil, nil)
}

// ReceiveDone polls whether a message is waiting to be fetched with ReceivedData.
func (d *Device) ReceiveDone(ctx context.Context) (bool, error) {
	return d.poll(ctx, OpReceiveDone)
}

// ACKReceived reports whether the last received frame is an acknowledgement from the given node.
func (d *Device) ACKReceived(ctx context.Context, from uint8) (bool, error) {
	return d.poll(ctx, OpACKReceived, from)
}

// ACKRequested reports whether the sender of the last received frame asked for an acknowledgement.
func (d *Device) ACKRequested(ctx context.Context) (bool, error) {
	return d.poll(ctx, OpACKRequested)
}

// SendACK answers the last received frame with an acknowledgement carrying msg.
func (d *Device) SendACK(ctx context.Context, msg Payload) error {
	frame, err := msg.appendTo(nil)
	if err != nil {
		return err
	}
	return d.transaction(ctx, OpSendACK, frame, nil)
}

// Frequency reads the carrier frequency in Hz.
func (d *Device) Frequency(ctx context.Context) (uint32, error) {
	var frf [3]byte
	err := d.transaction(ctx, OpGetFrequency, nil, func() error {
		return readFull(d.transport, frf[:])
	})
	if err != nil {
		return 0, err
	}
	return DecodeFrequency(frf[0], frf[1], frf[2]), nil
}

// SetFrequency sets the carrier frequency in Hz.
func (d *Device) SetFrequency(ctx context.Context, hz uint32) error {
	freq := EncodeFrequency(hz)
	return d.transaction(ctx, OpSetFrequency, freq[:], nil)
}

// Encrypt enables AES encryption with a 16 byte key, or disables it when key is empty.
// Keys of any other length are rejected, or in compatibility mode silently disable encryption.
func (d *Device) Encrypt(ctx context.Context, key []byte) error {
	if err := validateKey(key); err != nil {
		if !d.compat {
			return err
		}
		d.logger.Warn("Invalid encryption key, disabling encryption", "length", len(key))
		key = nil
	}

	args := []byte{0}
	if len(key) == KeySize {
		args = append([]byte{1}, key...)
	}
	return d.transaction(ctx, OpEncrypt, args, func() error {
		d.encrypted = len(key) == KeySize
		d.key = append([]byte(nil), key...)
		return nil
	})
}

// SetChipSelectPin changes the SPI chip select pin used by the firmware.
func (d *Device) SetChipSelectPin(ctx context.Context, pin uint8) error {
	if err := validatePin("chip select pin", pin); err != nil {
		return err
	}
	return d.transaction(ctx, OpSetCS, []byte{pin}, func() error {
		d.csPin = pin
		return nil
	})
}

// SetInterruptPin changes the DIO0 interrupt pin used by the firmware.
func (d *Device) SetInterruptPin(ctx context.Context, pin uint8) error {
	if err := validatePin("interrupt pin", pin); err != nil {
		return err
	}
	return d.transaction(ctx, OpSetIRQ, []byte{pin}, func() error {
		d.irqPin = pin
		return nil
	})
}

// RSSI reads the received signal strength in dBm. The value is never positive.
// With force set the firmware triggers a fresh measurement.
func (d *Device) RSSI(ctx context.Context, force bool) (int, error) {
	var magnitude [1]byte
	err := d.transaction(ctx, OpReadRSSI, []byte{boolByte(force)}, func() error {
		return readFull(d.transport, magnitude[:])
	})
	if err != nil {
		return 0, err
	}
	return -int(magnitude[0]), nil
}

// SetSpy toggles promiscuous mode, in which frames addressed to any node are received.
func (d *Device) SetSpy(ctx context.Context, enable bool) error {
	return d.transaction(ctx, OpSpyMode, []byte{boolByte(enable)}, nil)
}

// SetPowerLevel sets the transmitter output power level.
func (d *Device) SetPowerLevel(ctx context.Context, level uint8) error {
	return d.transaction(ctx, OpSetPowerLevel, []byte{level}, nil)
}

// Sleep puts the radio into its low power sleep mode.
func (d *Device) Sleep(ctx context.Context) error {
	return d.transaction(ctx, OpSleep, nil, nil)
}

// CalibrateRC runs the RC oscillator calibration.
func (d *Device) CalibrateRC(ctx context.Context) error {
	return d.transaction(ctx, OpRCCalibration, nil, nil)
}

// ReadRegister reads a raw radio register.
func (d *Device) ReadRegister(ctx context.Context, reg Register) (byte, error) {
	var value [1]byte
	err := d.transaction(ctx, OpReadRegister, []byte{byte(reg)}, func() error {
		return readFull(d.transport, value[:])
	})
	if err != nil {
		return 0, err
	}
	return value[0], nil
}

// WriteRegister writes a raw radio register.
func (d *Device) WriteRegister(ctx context.Context, reg Register, value byte) error {
	return d.transaction(ctx, OpWriteRegister, []byte{byte(reg), value}, nil)
}

// ReceivedData fetches the last received message. Callers should check ReceiveDone first.
func (d *Device) ReceivedData(ctx context.Context) (*Packet, error) {
	var packet *Packet
	err := d.transaction(ctx, OpGetReceiveData, nil, func() error {
		var header [2]byte
		if err := readFull(d.transport, header[:]); err != nil {
			return err
		}
		payload := make([]byte, header[1])
		if err := readFull(d.transport, payload); err != nil {
			return err
		}
		p, err := NewPacket(int(header[0]), payload)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedReply, err)
		}
		packet = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return packet, nil
}

// IsConnected probes the bridge by reading the payload length register, which a healthy
// firmware always reports as FirmwarePayloadLength.
func (d *Device) IsConnected(ctx context.Context) bool {
	value, err := d.ReadRegister(ctx, RegPayloadLength)
	return err == nil && value == FirmwarePayloadLength
}

// Close closes the transport if it is closable. It waits for a transaction in progress.
func (d *Device) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if closer, ok := d.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// transaction writes one command frame and reads its status byte. On success readReply,
// if set, consumes the remaining reply bytes and commits session changes while the lock is held.
// The input buffer is flushed afterwards so no stale bytes reach the next command.
func (d *Device) transaction(ctx context.Context, op Opcode, args []byte, readReply func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame := make([]byte, 0, 2+len(args))
	frame = append(frame, Sentinel, byte(op))
	frame = append(frame, args...)

	d.lock.Lock()
	defer d.lock.Unlock()
	defer d.flushInput(op)

	d.logger.Debug("Sending command", "op", op.String(), "frame", fmt.Sprintf("% X", frame))
	if _, err := d.transport.Write(frame); err != nil {
		return &CommandError{Op: op, Err: fmt.Errorf("write: %w", err)}
	}

	var status [1]byte
	if err := readFull(d.transport, status[:]); err != nil {
		return &CommandError{Op: op, Err: err}
	}
	if status[0] != Ack {
		return &CommandError{Op: op, Err: ErrNotAcknowledged}
	}

	if readReply != nil {
		if err := readReply(); err != nil {
			return &CommandError{Op: op, Err: err}
		}
	}
	return nil
}

// poll runs an acknowledge-only query whose negative answer is a regular result.
func (d *Device) poll(ctx context.Context, op Opcode, args ...byte) (bool, error) {
	err := d.transaction(ctx, op, args, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotAcknowledged), errors.Is(err, ErrNoReply):
		return false, nil
	default:
		return false, err
	}
}

func (d *Device) flushInput(op Opcode) {
	if err := d.transport.ResetInputBuffer(); err != nil {
		d.logger.Warn("Failed to reset input buffer", "op", op.String(), "error", err)
	}
}

func (d *Device) nodeAddress(address uint8) (uint8, error) {
	if address >= 1 && address <= 254 {
		return address, nil
	}
	if d.compat {
		d.logger.Warn("Invalid node address, using default", "address", address, "default", DefaultAddress)
		return DefaultAddress, nil
	}
	return 0, invalidArg("address", "must be within 1..254, got %d", address)
}

func (d *Device) networkIdentifier(networkID uint8) (uint8, error) {
	if networkID >= 1 && networkID <= 254 {
		return networkID, nil
	}
	if d.compat {
		d.logger.Warn("Invalid network id, using default", "networkID", networkID, "default", DefaultNetworkID)
		return DefaultNetworkID, nil
	}
	return 0, invalidArg("network id", "must be within 1..254, got %d", networkID)
}

func validatePin(name string, pin uint8) error {
	if pin > MaxPin {
		return invalidArg(name, "must be within 0..%d, got %d", MaxPin, pin)
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
