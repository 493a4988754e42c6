package tcp

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var served atomic.Int32
	onConn := func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		served.Add(1)

		// echo a single byte so the client can synchronize
		buff := make([]byte, 1)
		if _, err := conn.Read(buff); err == nil {
			_, _ = conn.Write(buff)
		}
	}

	server := NewServer(listener, onConn, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)

	_, err = conn.Write([]byte{'x'})
	require.NoError(t, err)

	buff := make([]byte, 1)
	_, err = io.ReadFull(conn, buff)
	require.NoError(t, err)
	require.Equal(t, byte('x'), buff[0])
	require.NoError(t, conn.Close())

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "cancellation must be a clean shutdown")
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}

	require.EqualValues(t, 1, served.Load())

	// the listener is released
	_, err = net.Dial("tcp", server.Addr().String())
	require.Error(t, err)
}

func TestServer_CancelClosesIdleConns(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	reading := make(chan struct{})
	onConn := func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		close(reading)

		// parks on the peer like a keep-alive session between requests
		buff := make([]byte, 1)
		_, _ = conn.Read(buff)
	}

	server := NewServer(listener, onConn, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	<-reading

	// the peer sends nothing; cancellation alone must end the drain
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("idle connection held the shutdown")
	}
}

func TestServer_HandlersDrainBeforeReturn(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	release := make(chan struct{})
	var finished atomic.Bool
	onConn := func(ctx context.Context, conn net.Conn) {
		defer conn.Close()
		<-release
		finished.Store(true)
	}

	server := NewServer(listener, onConn, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx)
	}()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// handler is now blocked; shutdown must wait for it
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
		t.Fatal("Serve returned before the handler finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}

	require.True(t, finished.Load())
}
