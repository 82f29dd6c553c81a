package serial

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/exepirit/rfm69serial/pkg/rfm69"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the UART speed of the bridge firmware.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds every blocking read of a reply byte.
	DefaultReadTimeout = time.Second
)

// Options configure the serial port.
type Options struct {
	BaudRate    int
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

// NewTransport opens the specified serial port. Zero options fall back to
// DefaultBaudRate and DefaultReadTimeout.
func NewTransport(port string, opts Options) (*Transport, error) {
	if opts.BaudRate == 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := p.SetReadTimeout(opts.ReadTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Serial port opened", "port", port, "baud", opts.BaudRate, "timeout", opts.ReadTimeout)
	return &Transport{Port: p, Logger: logger}, nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

var _ rfm69.Transport = &Transport{}

// Transport adapts a serial port to rfm69.Transport.
// A read that hits the port timeout returns (0, nil), which the engine treats as no reply.
type Transport struct {
	Port   serial.Port
	Logger *slog.Logger
}

func (t *Transport) Read(p []byte) (int, error) {
	return t.Port.Read(p)
}

func (t *Transport) Write(p []byte) (int, error) {
	return t.Port.Write(p)
}

func (t *Transport) ResetInputBuffer() error {
	return t.Port.ResetInputBuffer()
}

func (t *Transport) Close() error {
	return t.Port.Close()
}
