package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wirefault/wirefault/config"
)

func TestNew(t *testing.T) {
	cat := New(config.FaultNone)

	t.Run("data profile carries the captured payload", func(t *testing.T) {
		profile := cat.Profile(Data)
		require.Equal(t, 200, profile.Code)
		require.Equal(t, 78, len(profile.Body))
		// first chunk: size digit, CRLF, gzip magic right after
		require.Equal(t, byte('a'), profile.Body[0])
		require.Equal(t, []byte{0x1f, 0x8b}, profile.Body[3:5])
		// terminating zero chunk
		require.Equal(t, []byte("0\r\n\r\n"), profile.Body[73:])
	})

	t.Run("status profile has no body", func(t *testing.T) {
		profile := cat.Profile(Status)
		require.Equal(t, 200, profile.Code)
		require.Empty(t, profile.Body)
	})

	t.Run("header order is the capture order", func(t *testing.T) {
		headers := cat.Profile(Data).Headers
		require.Equal(t, "Content-Encoding", headers[0].Name)
		require.Equal(t, "Server", headers[len(headers)-1].Name)
		require.Equal(t, "ServiceNow", headers[len(headers)-1].Value)
	})
}

func TestNew_Faults(t *testing.T) {
	clean := New(config.FaultNone).Profile(Data).Body

	for mode, offset := range map[config.FaultMode]int{
		config.FaultChunkStart:    0,
		config.FaultChunkBoundary: 15,
		config.FaultMidChunk:      16,
	} {
		faulted := New(mode).Profile(Data).Body
		require.Equal(t, byte(0), faulted[offset], mode.String())

		// exactly one byte differs
		diff := 0
		for i := range clean {
			if clean[i] != faulted[i] {
				diff++
			}
		}
		require.Equal(t, 1, diff, mode.String())
	}
}

func TestNew_DoesNotShareBodies(t *testing.T) {
	first := New(config.FaultNone)
	second := New(config.FaultChunkStart)

	require.Equal(t, byte('a'), first.Profile(Data).Body[0])
	require.Equal(t, byte(0), second.Profile(Data).Body[0])
}

func TestCaptureBodySplit(t *testing.T) {
	body := New(config.FaultNone).Profile(Data).Body

	// the capture boundary sits exactly after the first chunk's trailing CRLF
	require.Equal(t, []byte{0x0d, 0x0a}, body[CaptureBodySplit-2:CaptureBodySplit])
	require.Equal(t, byte('3'), body[CaptureBodySplit])
}
