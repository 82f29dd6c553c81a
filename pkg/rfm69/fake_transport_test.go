package rfm69

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// scriptedTransport replays one queued reply per written frame.
// Reads from an empty buffer return (0, nil), which is how a serial port reports a timeout.
type scriptedTransport struct {
	mu        sync.Mutex
	written   [][]byte
	replies   [][]byte
	pending   []byte
	bytesRead int
	resets    int
	writeErr  error
}

func (s *scriptedTransport) reply(bs ...byte) *scriptedTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, bs)
	return s
}

// silence queues a frame that gets no answer at all.
func (s *scriptedTransport) silence() *scriptedTransport {
	return s.reply()
}

func (s *scriptedTransport) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, append([]byte(nil), p...))
	if len(s.replies) > 0 {
		s.pending = append(s.pending, s.replies[0]...)
		s.replies = s.replies[1:]
	}
	return len(p), nil
}

func (s *scriptedTransport) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 || len(p) == 0 {
		return 0, nil
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	s.bytesRead += n
	return n, nil
}

func (s *scriptedTransport) ResetInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.resets++
	return nil
}

func (s *scriptedTransport) frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.written...)
}

func (s *scriptedTransport) lastFrame(t *testing.T) []byte {
	t.Helper()
	frames := s.frames()
	require.NotEmpty(t, frames, "nothing written")
	return frames[len(frames)-1]
}

// forget drops the recorded frames and counters, e.g. after the handshake.
func (s *scriptedTransport) forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = nil
	s.bytesRead = 0
	s.resets = 0
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Address = 2
	cfg.NetworkID = 101
	cfg.ChipSelectPin = 7
	cfg.InterruptPin = 0
	cfg.Retry = RetryPolicy{Budget: 50 * time.Millisecond, Interval: 5 * time.Millisecond}
	return cfg
}

// openDevice completes the handshake against a fresh scripted transport.
func openDevice(t *testing.T, cfg Config) (*Device, *scriptedTransport) {
	t.Helper()
	ft := (&scriptedTransport{}).reply(Ack)
	d, err := Open(context.Background(), ft, cfg)
	require.NoError(t, err)
	ft.forget()
	return d, ft
}

func frame(op Opcode, args ...byte) []byte {
	return append([]byte{Sentinel, byte(op)}, args...)
}
