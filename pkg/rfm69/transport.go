package rfm69

import (
	"errors"
	"io"
	"os"
)

// Transport defines the byte stream used to talk to the bridge firmware.
// Read is expected to honour a read timeout and return (0, nil) or a timeout error once it expires.
// go.bug.st/serial.Port satisfies this interface.
type Transport interface {
	io.ReadWriter
	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error
}

// readFull fills buf from the transport. Any shortfall is reported as ErrNoReply.
func readFull(t Transport, buf []byte) error {
	for off := 0; off < len(buf); {
		n, err := t.Read(buf[off:])
		off += n
		switch {
		case err == nil && n == 0:
			return ErrNoReply
		case errors.Is(err, io.EOF), os.IsTimeout(err):
			if off < len(buf) {
				return ErrNoReply
			}
		case err != nil:
			return err
		}
	}
	return nil
}
