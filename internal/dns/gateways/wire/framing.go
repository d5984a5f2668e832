package wire

import (
	"bytes"
	"encoding/binary"
)

const (
	// StreamReadBufferSize is the size of the single read a stream handler performs.
	StreamReadBufferSize = 8192

	// MaxMessageSize is the largest message a 16-bit length prefix can describe.
	MaxMessageSize = 65535

	paddingBytes = " \t\n\v\f\r"
)

// TrimPadding strips trailing ASCII whitespace from a received buffer.
// Trailing 0x09-0x0d and 0x20 bytes belonging to the message itself are
// stripped as well.
func TrimPadding(b []byte) []byte {
	return bytes.TrimRight(b, paddingBytes)
}

// DecodeStreamFrame validates a length-prefixed frame received in a single read
// and returns the message that follows the prefix. The prefix must describe the
// remaining bytes exactly; reassembly across reads is not supported.
func DecodeStreamFrame(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, &FramingError{Reason: FramingShort, Declared: -1, Actual: len(frame)}
	}
	declared := int(binary.BigEndian.Uint16(frame[:2]))
	payload := frame[2:]
	switch {
	case declared < len(payload):
		return nil, &FramingError{Reason: FramingWrongSize, Declared: declared, Actual: len(payload)}
	case declared > len(payload):
		return nil, &FramingError{Reason: FramingTooBig, Declared: declared, Actual: len(payload)}
	}
	return payload, nil
}

// EncodeStreamFrame prefixes msg with its length as a big-endian uint16.
func EncodeStreamFrame(msg []byte) ([]byte, error) {
	if len(msg) > MaxMessageSize {
		return nil, &FramingError{Reason: FramingOversized, Declared: MaxMessageSize, Actual: len(msg)}
	}
	frame := make([]byte, 2+len(msg))
	//gosec:disable G115 -- length checked against MaxMessageSize above.
	binary.BigEndian.PutUint16(frame[:2], uint16(len(msg)))
	copy(frame[2:], msg)
	return frame, nil
}
