package wire

import "fmt"

// ParseError reports an incoming message that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "malformed DNS message: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Framing failure reasons.
const (
	FramingWrongSize = "wrong size"  // declared length smaller than the payload
	FramingTooBig    = "too big"     // declared length larger than the payload
	FramingShort     = "short frame" // fewer than two bytes, no length prefix
	FramingOversized = "oversized"   // message does not fit a 16-bit length prefix
)

// FramingError reports a DNS-over-TCP length prefix that does not describe the payload.
type FramingError struct {
	Reason   string
	Declared int
	Actual   int
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("%s of TCP packet: declared %d bytes, got %d", e.Reason, e.Declared, e.Actual)
}
