package http1

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Field is a single request header field, name kept verbatim.
type Field struct {
	Name, Value string
}

// Request is a parsed request head. The body, if any, is left unread on the
// connection.
type Request struct {
	Method, Target, Proto string

	Fields []Field

	rawHead strings.Builder
}

// RawHead returns the request line and header block exactly as received,
// for operator diagnostics.
func (r *Request) RawHead() string {
	return r.rawHead.String()
}

// Field returns the value of the first header with the given name,
// case-insensitively.
func (r *Request) Field(name string) (string, bool) {
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}

	return "", false
}

// KeepAlive reports whether the connection persists after the response,
// following the HTTP/1.0 and HTTP/1.1 defaults.
func (r *Request) KeepAlive() bool {
	conn, _ := r.Field("Connection")

	if r.Proto == "HTTP/1.0" {
		return strings.EqualFold(conn, "keep-alive")
	}

	return !strings.EqualFold(conn, "close")
}

// HasBody reports whether the client announced a request body. The fixture
// never reads bodies, so the dispatcher drops such connections after
// responding instead of desynchronizing on the next request head.
func (r *Request) HasBody() bool {
	if cl, ok := r.Field("Content-Length"); ok && cl != "0" {
		return true
	}

	_, chunked := r.Field("Transfer-Encoding")

	return chunked
}

// Parser reads request heads off a connection, one Parse call per request.
type Parser struct {
	reader       *bufio.Reader
	maxHeadBytes int
}

func NewParser(r io.Reader, readBufferSize, maxHeadBytes int) *Parser {
	return &Parser{
		reader:       bufio.NewReaderSize(r, readBufferSize),
		maxHeadBytes: maxHeadBytes,
	}
}

// Parse reads a request line and the following header block up to the blank
// line. It returns io.EOF if the peer closed the connection before sending
// anything, and ErrMalformedRequest (wrapped with detail) for anything that
// does not form a valid head.
func (p *Parser) Parse() (*Request, error) {
	request := new(Request)
	remaining := p.maxHeadBytes

	line, err := p.readLine(&remaining)
	if err != nil {
		// io.EOF here means the peer closed the connection between requests,
		// which is the normal end of a keep-alive session.
		return nil, err
	}

	request.rawHead.WriteString(line)
	request.rawHead.WriteString("\r\n")

	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}

	request.Method, request.Target, request.Proto = parts[0], parts[1], parts[2]
	if len(request.Method) == 0 || len(request.Target) == 0 ||
		!strings.HasPrefix(request.Proto, "HTTP/") {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}

	for {
		line, err = p.readLine(&remaining)
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: unexpected EOF in headers", ErrMalformedRequest)
			}

			return nil, err
		}

		if len(line) == 0 {
			return request, nil
		}

		request.rawHead.WriteString(line)
		request.rawHead.WriteString("\r\n")

		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			return nil, fmt.Errorf("%w: bad header line %q", ErrMalformedRequest, line)
		}

		request.Fields = append(request.Fields, Field{
			Name:  line[:colon],
			Value: strings.TrimLeft(line[colon+1:], " \t"),
		})
	}
}

// readLine reads a single CRLF-terminated line, tolerating a bare LF. The
// head size limit is charged fragment by fragment, so a line that never
// terminates fails once it overruns the limit instead of buffering forever.
func (p *Parser) readLine(remaining *int) (string, error) {
	var line []byte

	for {
		frag, err := p.reader.ReadSlice('\n')
		*remaining -= len(frag)
		if *remaining < 0 {
			return "", fmt.Errorf("%w: request head exceeds %d bytes", ErrMalformedRequest, p.maxHeadBytes)
		}

		line = append(line, frag...)

		switch err {
		case nil:
			return strings.TrimRight(string(line), "\r\n"), nil
		case bufio.ErrBufferFull:
			// line continues past the read buffer
		case io.EOF:
			if len(line) == 0 {
				return "", io.EOF
			}

			return "", fmt.Errorf("%w: truncated line", ErrMalformedRequest)
		default:
			return "", err
		}
	}
}
