package tcp

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/exepirit/rfm69serial/pkg/rfm69"
)

const (
	// DefaultReadTimeout bounds every blocking read of a reply byte.
	DefaultReadTimeout = time.Second
	// drainTimeout is how long ResetInputBuffer waits for straggling bytes.
	drainTimeout = 10 * time.Millisecond
	// maxDrainTime caps ResetInputBuffer against a peer that never stops sending.
	maxDrainTime = 100 * time.Millisecond
)

var _ rfm69.Transport = &Transport{}

// Transport reaches the bridge through a raw TCP serial server such as ser2net.
type Transport struct {
	conn        net.Conn
	readTimeout time.Duration
}

// Dial connects to a serial server at addr ("host:port").
func Dial(ctx context.Context, addr string, readTimeout time.Duration) (*Transport, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect serial server: %w", err)
	}
	return NewTransport(conn, readTimeout), nil
}

// NewTransport wraps an established connection.
func NewTransport(conn net.Conn, readTimeout time.Duration) *Transport {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Transport{conn: conn, readTimeout: readTimeout}
}

// Read reads with the configured timeout. A timeout yields (0, nil) like a serial port does.
func (t *Transport) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if os.IsTimeout(err) {
		return n, nil
	}
	return n, err
}

func (t *Transport) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

// ResetInputBuffer discards whatever the peer already sent, giving up after maxDrainTime.
func (t *Transport) ResetInputBuffer() error {
	buf := make([]byte, 256)
	giveUp := time.Now().Add(maxDrainTime)
	for {
		now := time.Now()
		if !now.Before(giveUp) {
			return nil
		}
		deadline := now.Add(drainTimeout)
		if deadline.After(giveUp) {
			deadline = giveUp
		}
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		n, err := t.conn.Read(buf)
		switch {
		case os.IsTimeout(err):
			return nil
		case err != nil:
			return err
		case n == 0:
			return nil
		}
	}
}

func (t *Transport) Close() error {
	return t.conn.Close()
}
