// Package responder answers decoded queries from the zone table.
package responder

import (
	"fmt"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/domain"
)

// Responder answers queries authoritatively from a ZoneMatcher.
type Responder struct {
	codec   Codec
	logger  log.Logger
	matcher ZoneMatcher
}

// ResponderOptions holds the dependencies of a Responder. Logger may be nil.
type ResponderOptions struct {
	Codec   Codec
	Logger  log.Logger
	Matcher ZoneMatcher
}

// NewResponder creates a Responder from opts, using a no-op logger when none is given.
func NewResponder(opts ResponderOptions) *Responder {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Responder{
		codec:   opts.Codec,
		logger:  logger,
		matcher: opts.Matcher,
	}
}

// BuildReply decodes raw, answers it and returns the encoded reply.
// Decode errors come back from the codec unchanged so callers can tell a
// malformed query apart from an encoding failure.
func (r *Responder) BuildReply(raw []byte) ([]byte, error) {
	q, err := r.codec.DecodeQuery(raw)
	if err != nil {
		return nil, err
	}
	r.logger.Debug(map[string]any{
		"id":    q.ID,
		"name":  q.Name,
		"type":  q.Type.String(),
		"class": q.Class.String(),
	}, "Query")

	resp := r.Respond(q)
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to encode reply %d: %w", resp.ID, err)
	}

	out, err := r.codec.EncodeResponse(resp)
	if err != nil {
		return nil, err
	}
	r.logger.Debug(map[string]any{
		"id":        resp.ID,
		"answers":   resp.AnswerCount(),
		"authority": resp.AuthorityCount(),
		"size":      len(out),
	}, "Reply")
	return out, nil
}

// Respond builds the authoritative reply to q. A name outside every zone gets
// an empty NOERROR reply. Inside a zone, the zone's records of the queried type
// (all of them for ANY) are answered under the query name, and the zone's NS
// and SOA records always fill the authority section.
func (r *Responder) Respond(q domain.Question) domain.DNSResponse {
	resp := domain.NewAuthoritativeResponse(q)

	z, ok := r.matcher.Match(q.Name)
	if !ok {
		return resp
	}

	for _, rr := range z.Records() {
		if q.Type.Selects(rr.Type) {
			resp.Answers = append(resp.Answers, rr.WithName(q.Name))
		}
	}
	resp.Authority = append(resp.Authority, z.Authority()...)
	return resp
}

var _ ReplyBuilder = (*Responder)(nil)
