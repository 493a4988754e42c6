package catalog

import (
	"github.com/wirefault/wirefault/config"
)

// Kind selects one of the two captured response profiles.
type Kind uint8

const (
	// Status is the profile served to HEAD requests: captured headers of the
	// upstream's status page, no body.
	Status Kind = iota
	// Data is the profile served to GET requests: the chunked gzip response
	// that triggered the original parsing defect.
	Data
)

func (k Kind) String() string {
	switch k {
	case Status:
		return "status"
	case Data:
		return "data"
	default:
		return "unknown"
	}
}

// HeaderEntry is a single header field as it appeared on the wire. Profiles
// hold ordered slices of entries instead of maps, because the reproduction
// depends on the exact header order of the capture.
type HeaderEntry struct {
	Name, Value string
}

// Profile is the fixed response template for one request kind.
type Profile struct {
	Code    int
	Phrase  string
	Headers []HeaderEntry
	Body    []byte
}

// CaptureBodySplit is the capture's split boundary relative to the body
// start: the head plus the complete first chunk (the 10-byte gzip header
// framed as "a\r\n...\r\n") went out in the first write.
const CaptureBodySplit = 15

// dataPayload is the chunked-encoded gzip stream taken verbatim from the
// failing capture. Two chunks: the gzip header, then the deflate stream with
// the CRC32/ISIZE trailer, followed by the terminating zero chunk. It must
// never be rebuilt with a compressor at runtime: a fresh gzip stream differs
// in the header's mtime/OS bytes and may differ in deflate output, which
// would invalidate the byte-for-byte reproduction.
//
// Decompresses to {"android":{"min_version":"4.0.0"},"ios":{"min_version":"4.0.0"}}.
var dataPayload = []byte{
	'a', 0x0d, 0x0a,
	0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x0d, 0x0a,
	'3', '4', 0x0d, 0x0a,
	0xab, 0x56, 0x4a, 0xcc, 0x4b, 0x29, 0xca, 0xcf, 0x4c, 0x51,
	0xb2, 0xaa, 0x56, 0xca, 0xcd, 0xcc, 0x8b, 0x2f, 0x4b, 0x2d,
	0x2a, 0xce, 0xcc, 0xcf, 0x53, 0xb2, 0x52, 0x32, 0xd1, 0x33,
	0xd0, 0x33, 0x50, 0xaa, 0xd5, 0x51, 0xca, 0xcc, 0x2f, 0xc6,
	0x29, 0x5b, 0x0b, 0x00, 0x37, 0x57, 0xea, 0x1d, 0x41, 0x00,
	0x00, 0x00,
	0x0d, 0x0a,
	'0', 0x0d, 0x0a,
	0x0d, 0x0a,
}

// dataHeaders is the header block of the failing response, in capture order.
var dataHeaders = []HeaderEntry{
	{"Content-Encoding", "gzip"},
	{"Set-Cookie", `glide_user=""; Expires=Thu, 01-Jan-1970 00:00:10 GMT; Path=/; HttpOnly`},
	{"Set-Cookie", `glide_user_session=""; Expires=Thu, 01-Jan-1970 00:00:10 GMT; Path=/; HttpOnly`},
	{"X-Is-Logged-In", "false"},
	{"X-Transaction-ID", "7cba67127310"},
	{"Pragma", "no-store,no-cache"},
	{"Cache-control", "no-cache,no-store,must-revalidate,max-age=-1"},
	{"Expires", "0"},
	{"Content-Type", "application/json;charset=UTF-8"},
	{"Transfer-Encoding", "chunked"},
	{"Date", "Thu, 23 Apr 2020 10:17:02 GMT"},
	{"Server", "ServiceNow"},
}

// statusHeaders is the header block the upstream sent for HEAD requests.
var statusHeaders = []HeaderEntry{
	{"Set-Cookie", "JSESSIONID=014F24618731E4C4CED40B8288E4CE62; Path=/; HttpOnly"},
	{"Pragma", "no-store,no-cache"},
	{"Cache-control", "no-cache,no-store,must-revalidate,max-age=-1"},
	{"Expires", "0"},
	{"Content-Type", "text/html"},
	{"Transfer-Encoding", "chunked"},
	{"Date", "Thu, 23 Apr 2020 10:16:28 GMT"},
	{"Server", "ServiceNow"},
}

// faultOffsets maps a fault mode to the body byte it zeroes. The offsets
// target the first chunk's size digit, the second chunk's first size digit
// and its second size digit respectively.
var faultOffsets = map[config.FaultMode]int{
	config.FaultChunkStart:    0,
	config.FaultChunkBoundary: 15,
	config.FaultMidChunk:      16,
}

// Catalog is the immutable set of response profiles. It is built once at
// startup (with the fault, if any, already applied) and is shared by all
// connection handlers without locking.
type Catalog struct {
	status, data Profile
}

func New(mode config.FaultMode) *Catalog {
	body := make([]byte, len(dataPayload))
	copy(body, dataPayload)

	if offset, ok := faultOffsets[mode]; ok {
		body[offset] = 0
	}

	return &Catalog{
		status: Profile{
			Code:    200,
			Phrase:  "OK",
			Headers: statusHeaders,
		},
		data: Profile{
			Code:    200,
			Phrase:  "OK",
			Headers: dataHeaders,
			Body:    body,
		},
	}
}

func (c *Catalog) Profile(kind Kind) *Profile {
	switch kind {
	case Status:
		return &c.status
	default:
		return &c.data
	}
}
