package tcp

import (
	"context"
	"net"
	"sync"

	"go.uber.org/zap"
)

// OnConn handles a single accepted connection and returns when it is done
// with it. The handler owns the connection and must close it.
type OnConn func(ctx context.Context, conn net.Conn)

// Server runs the accept loop. It does not interpret any bytes itself; every
// accepted connection is handed to the OnConn callback in its own goroutine.
type Server struct {
	listener net.Listener
	onConn   OnConn
	log      *zap.Logger
}

func NewServer(listener net.Listener, onConn OnConn, log *zap.Logger) *Server {
	return &Server{
		listener: listener,
		onConn:   onConn,
		log:      log,
	}
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is canceled, then stops accepting and
// waits for the handlers to drain. Cancellation closes every live connection,
// so an idle keep-alive peer cannot hold the drain open.
func (s *Server) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	stop := context.AfterFunc(ctx, func() {
		// unblocks Accept
		_ = s.listener.Close()
	})
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("listener closed, draining connections")
				wg.Wait()
				return nil
			}

			wg.Wait()
			return err
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			// Nagle's algorithm could coalesce the two response writes into a
			// single segment. Go disables it by default, this just pins it.
			_ = tc.SetNoDelay(true)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			// Kicks a handler blocked on a read out when ctx is canceled.
			unhook := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer unhook()

			s.onConn(ctx, conn)
		}()
	}
}
