package http1

import (
	"fmt"
	"io"
)

// EmitSegmented transmits buf as exactly two writes, buf[:split] followed by
// buf[split:], with nothing buffered in between. The two calls are what
// forces the transport segmentation the reproduction depends on, so w must
// be the connection itself, not a buffered writer.
//
// A split at or beyond the end of the buffer degenerates into a single
// write; the status profile is emitted that way. Out-of-range splits for the
// data profile are rejected by configuration validation at startup and never
// reach this point.
//
// A short write is surfaced as ErrPartialWrite and never retried, since
// completing it with a third write would silently change the segmentation
// under test.
func EmitSegmented(w io.Writer, buf []byte, split int) error {
	if split <= 0 || split >= len(buf) {
		return writeFull(w, buf)
	}

	if err := writeFull(w, buf[:split]); err != nil {
		return err
	}

	return writeFull(w, buf[split:])
}

func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}

	if n != len(b) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrPartialWrite, n, len(b))
	}

	return nil
}
