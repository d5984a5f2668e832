package wire

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/domain"
)

var errNoQuestion = errors.New("message carries no question")

// MsgCodec implements DNSCodec on top of github.com/miekg/dns.
type MsgCodec struct {
	logger log.Logger
}

// NewMsgCodec creates a codec that logs packing details at debug level.
func NewMsgCodec(logger log.Logger) *MsgCodec {
	return &MsgCodec{logger: logger}
}

// DecodeQuery parses a DNS query message. Only the first question is used;
// a message without a question is rejected.
func (c *MsgCodec) DecodeQuery(data []byte) (domain.Question, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil {
		return domain.Question{}, &ParseError{Err: err}
	}
	if len(msg.Question) == 0 {
		return domain.Question{}, &ParseError{Err: errNoQuestion}
	}
	if len(msg.Question) > 1 {
		c.logger.Debug(map[string]any{
			"id":        msg.Id,
			"questions": len(msg.Question),
		}, "Query carries more than one question, using the first")
	}

	q := msg.Question[0]
	question, err := domain.NewQuestion(msg.Id, q.Name, domain.RRType(q.Qtype), domain.RRClass(q.Qclass))
	if err != nil {
		return domain.Question{}, &ParseError{Err: err}
	}
	return question, nil
}

// EncodeResponse serializes a DNSResponse with name compression.
func (c *MsgCodec) EncodeResponse(resp domain.DNSResponse) ([]byte, error) {
	msg := new(dns.Msg)
	msg.Id = resp.ID
	msg.Response = true
	msg.Opcode = dns.OpcodeQuery
	msg.Authoritative = resp.Authoritative
	msg.RecursionAvailable = resp.RecursionAvailable
	msg.Rcode = int(resp.RCode)
	msg.Compress = true
	msg.Question = []dns.Question{{
		Name:   resp.Question.Name,
		Qtype:  uint16(resp.Question.Type),
		Qclass: uint16(resp.Question.Class),
	}}

	var err error
	if msg.Answer, err = toRRs(resp.Answers); err != nil {
		return nil, fmt.Errorf("answer section: %w", err)
	}
	if msg.Ns, err = toRRs(resp.Authority); err != nil {
		return nil, fmt.Errorf("authority section: %w", err)
	}
	if msg.Extra, err = toRRs(resp.Additional); err != nil {
		return nil, fmt.Errorf("additional section: %w", err)
	}

	packed, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("failed to pack response %d: %w", resp.ID, err)
	}

	c.logger.Debug(map[string]any{
		"id":   resp.ID,
		"an":   len(msg.Answer),
		"ns":   len(msg.Ns),
		"ar":   len(msg.Extra),
		"size": len(packed),
	}, "Encoded DNS response")

	return packed, nil
}

// NewQueryMsg builds a standard query for a single question with RD unset,
// ready for a dns.Client exchange. A zero class means IN.
func NewQueryMsg(query domain.Question) (*dns.Msg, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	class := uint16(query.Class)
	if class == 0 {
		class = dns.ClassINET
	}

	msg := new(dns.Msg)
	msg.Id = query.ID
	msg.Opcode = dns.OpcodeQuery
	msg.Question = []dns.Question{{
		Name:   dns.Fqdn(query.Name),
		Qtype:  uint16(query.Type),
		Qclass: class,
	}}
	return msg, nil
}

// DecodeResponse parses a reply and checks it answers the query with expectedID.
func (c *MsgCodec) DecodeResponse(data []byte, expectedID uint16) (domain.DNSResponse, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil {
		return domain.DNSResponse{}, &ParseError{Err: err}
	}
	if msg.Id != expectedID {
		return domain.DNSResponse{}, fmt.Errorf("ID mismatch: expected %d, got %d", expectedID, msg.Id)
	}
	if !msg.Response {
		return domain.DNSResponse{}, fmt.Errorf("message %d is not a response", msg.Id)
	}

	resp := domain.DNSResponse{
		ID:                 msg.Id,
		Authoritative:      msg.Authoritative,
		RecursionAvailable: msg.RecursionAvailable,
		//gosec:disable G115 -- rcode is masked to 4 bits.
		RCode:      domain.RCode(msg.Rcode & 0x0F),
		Answers:    fromRRs(msg.Answer),
		Authority:  fromRRs(msg.Ns),
		Additional: fromRRs(msg.Extra),
	}
	if len(msg.Question) > 0 {
		q := msg.Question[0]
		resp.Question = domain.Question{
			ID:    msg.Id,
			Name:  q.Name,
			Type:  domain.RRType(q.Qtype),
			Class: domain.RRClass(q.Qclass),
		}
	}
	return resp, nil
}

func toRRs(records []domain.ResourceRecord) ([]dns.RR, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]dns.RR, 0, len(records))
	for _, rec := range records {
		rr, err := toRR(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, nil
}

// toRR converts a domain record to its miekg representation. The record types
// synthesized for zones are built field by field so names are packed exactly as
// stored; anything else goes through the presentation-format parser.
func toRR(rec domain.ResourceRecord) (dns.RR, error) {
	hdr := dns.RR_Header{
		Name:   rec.Name,
		Rrtype: uint16(rec.Type),
		Class:  uint16(rec.Class),
		Ttl:    rec.TTL,
	}

	switch rec.Type {
	case domain.RRTypeA:
		ip := net.ParseIP(rec.Data).To4()
		if ip == nil {
			return nil, fmt.Errorf("invalid A record data %q", rec.Data)
		}
		return &dns.A{Hdr: hdr, A: ip}, nil
	case domain.RRTypeNS:
		return &dns.NS{Hdr: hdr, Ns: rec.Data}, nil
	case domain.RRTypeCNAME:
		return &dns.CNAME{Hdr: hdr, Target: rec.Data}, nil
	case domain.RRTypeMX:
		// data = "10 mail.example.com."
		parts := strings.Fields(rec.Data)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid MX record data %q", rec.Data)
		}
		pref, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid MX preference %q: %w", parts[0], err)
		}
		return &dns.MX{Hdr: hdr, Preference: uint16(pref), Mx: parts[1]}, nil
	case domain.RRTypeSOA:
		// data = "mname rname serial refresh retry expire minimum"
		parts := strings.Fields(rec.Data)
		if len(parts) != 7 {
			return nil, fmt.Errorf("invalid SOA record data %q (expected 7 fields)", rec.Data)
		}
		var timers [5]uint32
		for i := range timers {
			v, err := strconv.ParseUint(parts[i+2], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid SOA field %d: %w", i+2, err)
			}
			timers[i] = uint32(v)
		}
		return &dns.SOA{
			Hdr:     hdr,
			Ns:      parts[0],
			Mbox:    parts[1],
			Serial:  timers[0],
			Refresh: timers[1],
			Retry:   timers[2],
			Expire:  timers[3],
			Minttl:  timers[4],
		}, nil
	default:
		rr, err := dns.NewRR(rec.String())
		if err != nil {
			return nil, fmt.Errorf("invalid %s record: %w", rec.Type, err)
		}
		return rr, nil
	}
}

func fromRRs(rrs []dns.RR) []domain.ResourceRecord {
	if len(rrs) == 0 {
		return nil
	}
	out := make([]domain.ResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		hdr := rr.Header()
		out = append(out, domain.ResourceRecord{
			Name:  hdr.Name,
			Type:  domain.RRType(hdr.Rrtype),
			Class: domain.RRClass(hdr.Class),
			TTL:   hdr.Ttl,
			Data:  strings.TrimPrefix(rr.String(), hdr.String()),
		})
	}
	return out
}

var _ DNSCodec = (*MsgCodec)(nil)
