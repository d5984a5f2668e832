// Package wire converts between DNS wire format and the domain model, and
// implements the DNS-over-TCP length framing (RFC 1035 §4.2.2).
package wire

import (
	"github.com/udnsd/udns/internal/dns/domain"
)

// DNSCodec packs and unpacks DNS messages.
type DNSCodec interface {
	// Authoritative Functions
	// DecodeQuery parses an incoming query; malformed input yields a *ParseError.
	DecodeQuery(data []byte) (domain.Question, error)
	// EncodeResponse serializes a reply built by the responder.
	EncodeResponse(resp domain.DNSResponse) ([]byte, error)

	// Client Functions
	// DecodeResponse checks a reply received by the query command.
	DecodeResponse(data []byte, expectedID uint16) (domain.DNSResponse, error)
}
