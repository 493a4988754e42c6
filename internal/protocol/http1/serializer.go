package http1

import (
	"strconv"

	"github.com/wirefault/wirefault/catalog"
)

// Serialize renders a profile into its full wire form: status line, headers
// in catalog order, blank line, body. It returns the buffer and the length
// of the head (everything up to and including the blank line), which is the
// body's offset within the buffer.
func Serialize(p *catalog.Profile) (buf []byte, head int) {
	buf = make([]byte, 0, estimateSize(p))

	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(p.Code), 10)
	buf = append(buf, ' ')
	buf = append(buf, p.Phrase...)
	buf = crlf(buf)

	for _, h := range p.Headers {
		buf = append(buf, h.Name...)
		buf = append(buf, ": "...)
		buf = append(buf, h.Value...)
		buf = crlf(buf)
	}

	buf = crlf(buf)
	head = len(buf)
	buf = append(buf, p.Body...)

	return buf, head
}

func estimateSize(p *catalog.Profile) int {
	// status line is at most "HTTP/1.1 " + 3 digits + phrase + CRLF
	size := 9 + 3 + len(p.Phrase) + 2

	for _, h := range p.Headers {
		size += len(h.Name) + 2 + len(h.Value) + 2
	}

	return size + 2 + len(p.Body)
}

func crlf(b []byte) []byte {
	return append(b, '\r', '\n')
}
