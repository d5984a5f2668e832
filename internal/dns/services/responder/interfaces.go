package responder

import (
	"github.com/udnsd/udns/internal/dns/domain"
	"github.com/udnsd/udns/internal/dns/repos/zone"
)

// ZoneMatcher finds the configured zone answering for a query name.
type ZoneMatcher interface {
	Match(qname string) (*zone.ZoneRecord, bool)
}

// Codec is the part of the wire codec the responder needs.
type Codec interface {
	DecodeQuery(data []byte) (domain.Question, error)
	EncodeResponse(resp domain.DNSResponse) ([]byte, error)
}

// ReplyBuilder turns one raw query into one raw reply. Transports depend on it.
type ReplyBuilder interface {
	BuildReply(raw []byte) ([]byte, error)
}
