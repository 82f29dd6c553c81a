package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/exepirit/rfm69serial/pkg/rfm69"
	"github.com/stretchr/testify/require"
)

func TestReadTimeoutYieldsNoBytes(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	tr := NewTransport(client, 10*time.Millisecond)
	defer tr.Close()

	buf := make([]byte, 4)
	n, err := tr.Read(buf)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestResetInputBufferDrains(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	tr := NewTransport(client, 50*time.Millisecond)
	defer tr.Close()

	go func() {
		_, _ = server.Write([]byte("stale"))
	}()
	require.Eventually(t, func() bool {
		if err := tr.ResetInputBuffer(); err != nil {
			return false
		}
		n, err := tr.Read(make([]byte, 8))
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)
}

func TestResetInputBufferBoundedForChattyPeer(t *testing.T) {
	client, server := net.Pipe()
	tr := NewTransport(client, 50*time.Millisecond)
	defer tr.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer server.Close()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if _, err := server.Write([]byte("noise")); err != nil {
				return
			}
		}
	}()

	start := time.Now()
	require.NoError(t, tr.ResetInputBuffer())
	require.Less(t, time.Since(start), maxDrainTime+200*time.Millisecond)
}

// fakeFirmware acknowledges every command frame it reads.
func fakeFirmware(conn net.Conn) {
	buf := make([]byte, 64)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
		if _, err := conn.Write([]byte{rfm69.Ack}); err != nil {
			return
		}
	}
}

func TestDialAndHandshake(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fakeFirmware(conn)
	}()

	tr, err := Dial(context.Background(), listener.Addr().String(), 200*time.Millisecond)
	require.NoError(t, err)
	defer tr.Close()

	cfg := rfm69.DefaultConfig()
	d, err := rfm69.Open(context.Background(), tr, cfg)
	require.NoError(t, err)
	require.NoError(t, d.Sleep(context.Background()))
}
