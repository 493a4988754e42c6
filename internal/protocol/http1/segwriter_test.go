package http1

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// segmentRecorder keeps every Write call as a separate segment.
type segmentRecorder struct {
	Segments [][]byte
}

func (s *segmentRecorder) Write(b []byte) (int, error) {
	segment := make([]byte, len(b))
	copy(segment, b)
	s.Segments = append(s.Segments, segment)

	return len(b), nil
}

func (s *segmentRecorder) Joined() []byte {
	var joined []byte
	for _, segment := range s.Segments {
		joined = append(joined, segment...)
	}

	return joined
}

type shortWriter struct{}

func (shortWriter) Write(b []byte) (int, error) {
	return len(b) - 1, nil
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) {
	return 0, f.err
}

func TestEmitSegmented(t *testing.T) {
	payload := []byte("HTTP/1.1 200 OK\r\n\r\nhello, world")

	t.Run("every in-range split yields exactly two writes", func(t *testing.T) {
		for split := 1; split < len(payload); split++ {
			recorder := new(segmentRecorder)
			require.NoError(t, EmitSegmented(recorder, payload, split))
			require.Equal(t, 2, len(recorder.Segments), "split=%d", split)
			require.Equal(t, split, len(recorder.Segments[0]), "split=%d", split)
			require.Equal(t, payload, recorder.Joined(), "split=%d", split)
		}
	})

	t.Run("split at end is a single write", func(t *testing.T) {
		recorder := new(segmentRecorder)
		require.NoError(t, EmitSegmented(recorder, payload, len(payload)))
		require.Equal(t, 1, len(recorder.Segments))
		require.Equal(t, payload, recorder.Joined())
	})

	t.Run("zero split is a single write", func(t *testing.T) {
		recorder := new(segmentRecorder)
		require.NoError(t, EmitSegmented(recorder, payload, 0))
		require.Equal(t, 1, len(recorder.Segments))
		require.Equal(t, payload, recorder.Joined())
	})

	t.Run("short write is surfaced, not retried", func(t *testing.T) {
		err := EmitSegmented(shortWriter{}, payload, 10)
		require.ErrorIs(t, err, ErrPartialWrite)
	})

	t.Run("transport error is propagated", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := EmitSegmented(failingWriter{err: cause}, payload, 10)
		require.ErrorIs(t, err, cause)
	})
}
