package http

import (
	"context"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/wirefault/wirefault/catalog"
	"github.com/wirefault/wirefault/config"
	"github.com/wirefault/wirefault/internal/metrics"
	"github.com/wirefault/wirefault/internal/protocol/http1"
)

// methodNotAllowed is the only response that is not part of the capture. Its
// exact shape is unspecified, it just has to terminate the exchange cleanly.
var methodNotAllowed = []byte("HTTP/1.1 405 Method Not Allowed\r\nContent-Length: 0\r\n\r\n")

// response is a fully serialized profile plus the write boundary to emit it
// with. Both profiles are rendered once at startup; request handling only
// ever reads them.
type response struct {
	buf     []byte
	split   int
	profile string
}

// Dispatcher serves connections: reads request heads, maps the method to a
// profile and emits it through the segmented writer.
type Dispatcher struct {
	net     config.NET
	status  response
	data    response
	log     *zap.Logger
	metrics *metrics.Injector
}

// NewDispatcher renders both catalog profiles. split is the write boundary
// for the data profile, as an offset into its full serialized form; the
// caller validates it beforehand.
func NewDispatcher(
	cfg *config.Config, cat *catalog.Catalog, split int,
	log *zap.Logger, m *metrics.Injector,
) *Dispatcher {
	statusBuf, _ := http1.Serialize(cat.Profile(catalog.Status))
	dataBuf, _ := http1.Serialize(cat.Profile(catalog.Data))

	return &Dispatcher{
		net: cfg.NET,
		status: response{
			buf: statusBuf,
			// no body, single write
			split:   len(statusBuf),
			profile: catalog.Status.String(),
		},
		data: response{
			buf:     dataBuf,
			split:   split,
			profile: catalog.Data.String(),
		},
		log:     log,
		metrics: m,
	}
}

// DataResponseLen returns the serialized length of the data profile, for
// split validation at startup.
func DataResponseLen(cat *catalog.Catalog) int {
	buf, _ := http1.Serialize(cat.Profile(catalog.Data))
	return len(buf)
}

// DefaultSplit returns the capture's write boundary for the data profile:
// the head plus the complete first chunk.
func DefaultSplit(cat *catalog.Catalog) int {
	_, head := http1.Serialize(cat.Profile(catalog.Data))
	return head + catalog.CaptureBodySplit
}

// ServeConn handles one connection for its whole lifetime, serving requests
// until the peer disconnects, an error occurs or the server shuts down.
func (d *Dispatcher) ServeConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	d.metrics.Connection("accepted")
	log := d.log.With(zap.String("remote", conn.RemoteAddr().String()))
	parser := http1.NewParser(conn, d.net.ReadBufferSize, d.net.MaxHeaderBytes)

	for d.serveRequest(log, parser, conn) {
		if ctx.Err() != nil {
			log.Debug("closing keep-alive connection on shutdown")
			return
		}
	}
}

// serveRequest reads and answers a single request, reporting whether the
// connection can serve another one.
func (d *Dispatcher) serveRequest(log *zap.Logger, parser *http1.Parser, conn net.Conn) bool {
	request, err := parser.Parse()
	if err != nil {
		switch {
		case err == io.EOF:
			log.Debug("peer closed connection")
		case errors.Is(err, net.ErrClosed):
			// shutdown closed the connection under the blocked read
			log.Debug("connection closed while reading")
		case errors.Is(err, http1.ErrMalformedRequest):
			d.metrics.Error("malformed_request")
			log.Warn("dropping connection", zap.Error(err))
		default:
			d.metrics.Error("read")
			log.Warn("read failed", zap.Error(err))
		}

		return false
	}

	d.metrics.Request(request.Method)
	log.Info("request",
		zap.String("method", request.Method),
		zap.String("target", request.Target),
		zap.String("proto", request.Proto),
	)
	log.Debug("request head", zap.String("head", request.RawHead()))

	var resp response
	switch request.Method {
	// the path is deliberately not routed: any target gets the profile
	case "HEAD":
		resp = d.status
	case "GET":
		resp = d.data
	default:
		d.metrics.Error("unsupported_method")
		log.Warn("unsupported method", zap.String("method", request.Method),
			zap.Error(http1.ErrUnsupportedMethod))
		_ = http1.EmitSegmented(conn, methodNotAllowed, 0)

		return false
	}

	if err := http1.EmitSegmented(conn, resp.buf, resp.split); err != nil {
		d.metrics.Error("write")
		log.Error("write failed, aborting connection", zap.Error(err))

		return false
	}

	d.metrics.Response(resp.profile)

	if request.HasBody() {
		// the fixture never reads request bodies, so the parser would treat
		// the unread body as the next request head
		log.Debug("request announced a body, closing connection")
		return false
	}

	return request.KeepAlive()
}
