package wire

import (
	"errors"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/domain"
)

func newTestCodec() *MsgCodec {
	return NewMsgCodec(log.NewNoopLogger())
}

func packQuery(t *testing.T, id uint16, name string, qtype uint16) []byte {
	t.Helper()
	m := new(dns.Msg)
	m.SetQuestion(name, qtype)
	m.Id = id
	b, err := m.Pack()
	require.NoError(t, err)
	return b
}

func zoneRecords(owner string) []domain.ResourceRecord {
	return []domain.ResourceRecord{
		{Name: owner, Type: domain.RRTypeA, Class: domain.RRClassIN, TTL: 300, Data: "1.2.3.4"},
		{Name: owner, Type: domain.RRTypeSOA, Class: domain.RRClassIN, TTL: 300, Data: "ns1.example.com. apache.example.com. 201307231 3600 10800 86400 3600"},
		{Name: owner, Type: domain.RRTypeNS, Class: domain.RRClassIN, TTL: 300, Data: "ns1.example.com."},
		{Name: owner, Type: domain.RRTypeNS, Class: domain.RRClassIN, TTL: 300, Data: "ns2.example.com."},
		{Name: owner, Type: domain.RRTypeMX, Class: domain.RRClassIN, TTL: 300, Data: "10 example.com."},
		{Name: owner, Type: domain.RRTypeCNAME, Class: domain.RRClassIN, TTL: 300, Data: "example.com."},
	}
}

func TestMsgCodec_DecodeQuery(t *testing.T) {
	codec := newTestCodec()

	q, err := codec.DecodeQuery(packQuery(t, 0xBEEF, "www.Example.com.", dns.TypeMX))
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), q.ID)
	assert.Equal(t, "www.Example.com.", q.Name, "case must be preserved")
	assert.Equal(t, domain.RRTypeMX, q.Type)
	assert.Equal(t, domain.RRClassIN, q.Class)
}

func TestMsgCodec_DecodeQuery_FirstQuestionWins(t *testing.T) {
	m := new(dns.Msg)
	m.Id = 9
	m.Question = []dns.Question{
		{Name: "first.example.", Qtype: dns.TypeA, Qclass: dns.ClassINET},
		{Name: "second.example.", Qtype: dns.TypeMX, Qclass: dns.ClassINET},
	}
	b, err := m.Pack()
	require.NoError(t, err)

	q, err := newTestCodec().DecodeQuery(b)
	require.NoError(t, err)
	assert.Equal(t, "first.example.", q.Name)
	assert.Equal(t, domain.RRTypeA, q.Type)
}

func TestMsgCodec_DecodeQuery_Errors(t *testing.T) {
	noQuestion, err := (&dns.Msg{MsgHdr: dns.MsgHdr{Id: 1}}).Pack()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: []byte{0x00, 0x01, 0x02}},
		{name: "garbage", data: []byte("this is not a dns packet at all")},
		{name: "truncated question", data: packQuery(t, 1, "example.com.", dns.TypeA)[:15]},
		{name: "no question", data: noQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestCodec().DecodeQuery(tt.data)
			require.Error(t, err)
			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
		})
	}
}

func TestMsgCodec_EncodeResponse_RoundTrip(t *testing.T) {
	codec := newTestCodec()
	q := domain.Question{ID: 31337, Name: "foo.example.com.", Type: domain.RRTypeANY, Class: domain.RRClassIN}
	resp := domain.NewAuthoritativeResponse(q)
	resp.Answers = zoneRecords("foo.example.com.")
	auth := zoneRecords("example.com.")
	resp.Authority = []domain.ResourceRecord{auth[2], auth[3], auth[1]}

	packed, err := codec.EncodeResponse(resp)
	require.NoError(t, err)

	// independent parse with miekg
	m := new(dns.Msg)
	require.NoError(t, m.Unpack(packed))
	assert.Equal(t, uint16(31337), m.Id)
	assert.True(t, m.Response)
	assert.True(t, m.Authoritative)
	assert.True(t, m.RecursionAvailable)
	assert.False(t, m.RecursionDesired)
	assert.Equal(t, dns.RcodeSuccess, m.Rcode)
	require.Len(t, m.Question, 1)
	assert.Equal(t, dns.Question{Name: "foo.example.com.", Qtype: dns.TypeANY, Qclass: dns.ClassINET}, m.Question[0])
	require.Len(t, m.Answer, 6)
	require.Len(t, m.Ns, 3)

	a, ok := m.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.True(t, a.A.Equal(net.ParseIP("1.2.3.4")))
	assert.Equal(t, uint32(300), a.Hdr.Ttl)

	soa, ok := m.Answer[1].(*dns.SOA)
	require.True(t, ok)
	assert.Equal(t, "ns1.example.com.", soa.Ns)
	assert.Equal(t, "apache.example.com.", soa.Mbox)
	assert.Equal(t, uint32(201307231), soa.Serial)
	assert.Equal(t, uint32(3600), soa.Refresh)
	assert.Equal(t, uint32(10800), soa.Retry)
	assert.Equal(t, uint32(86400), soa.Expire)
	assert.Equal(t, uint32(3600), soa.Minttl)

	mx, ok := m.Answer[4].(*dns.MX)
	require.True(t, ok)
	assert.Equal(t, uint16(10), mx.Preference)
	assert.Equal(t, "example.com.", mx.Mx)

	cname, ok := m.Answer[5].(*dns.CNAME)
	require.True(t, ok)
	assert.Equal(t, "example.com.", cname.Target)

	ns, ok := m.Ns[0].(*dns.NS)
	require.True(t, ok)
	assert.Equal(t, "example.com.", ns.Hdr.Name)
	assert.Equal(t, "ns1.example.com.", ns.Ns)
	_, ok = m.Ns[2].(*dns.SOA)
	assert.True(t, ok)

	// and back through the codec itself
	decoded, err := codec.DecodeResponse(packed, 31337)
	require.NoError(t, err)
	assert.Equal(t, q, decoded.Question)
	assert.Equal(t, resp.Answers, decoded.Answers)
	assert.Equal(t, resp.Authority, decoded.Authority)
	assert.True(t, decoded.Authoritative)
	assert.True(t, decoded.RecursionAvailable)
}

func TestMsgCodec_EncodeResponse_Empty(t *testing.T) {
	codec := newTestCodec()
	q := domain.Question{ID: 5, Name: "other.org.", Type: domain.RRTypeA, Class: domain.RRClassIN}

	packed, err := codec.EncodeResponse(domain.NewAuthoritativeResponse(q))
	require.NoError(t, err)

	m := new(dns.Msg)
	require.NoError(t, m.Unpack(packed))
	assert.True(t, m.Authoritative)
	assert.Empty(t, m.Answer)
	assert.Empty(t, m.Ns)
	assert.Empty(t, m.Extra)
}

func TestMsgCodec_EncodeResponse_InvalidRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  domain.ResourceRecord
	}{
		{name: "bad A", rec: domain.ResourceRecord{Name: "a.", Type: domain.RRTypeA, Class: domain.RRClassIN, Data: "not-an-ip"}},
		{name: "AAAA data in A", rec: domain.ResourceRecord{Name: "a.", Type: domain.RRTypeA, Class: domain.RRClassIN, Data: "2001:db8::1"}},
		{name: "bad MX", rec: domain.ResourceRecord{Name: "a.", Type: domain.RRTypeMX, Class: domain.RRClassIN, Data: "mail.a."}},
		{name: "bad MX preference", rec: domain.ResourceRecord{Name: "a.", Type: domain.RRTypeMX, Class: domain.RRClassIN, Data: "x mail.a."}},
		{name: "short SOA", rec: domain.ResourceRecord{Name: "a.", Type: domain.RRTypeSOA, Class: domain.RRClassIN, Data: "ns1.a. apache.a. 1 2 3"}},
		{name: "non numeric SOA", rec: domain.ResourceRecord{Name: "a.", Type: domain.RRTypeSOA, Class: domain.RRClassIN, Data: "ns1.a. apache.a. 1 2 3 4 x"}},
		{name: "relative owner", rec: domain.ResourceRecord{Name: "a", Type: domain.RRTypeNS, Class: domain.RRClassIN, Data: "ns1.a."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := domain.NewAuthoritativeResponse(domain.Question{ID: 1, Name: "a.", Type: domain.RRTypeA, Class: domain.RRClassIN})
			resp.Answers = []domain.ResourceRecord{tt.rec}
			_, err := newTestCodec().EncodeResponse(resp)
			assert.Error(t, err)
		})
	}
}

func TestMsgCodec_EncodeResponse_PresentationFallback(t *testing.T) {
	resp := domain.NewAuthoritativeResponse(domain.Question{ID: 2, Name: "example.com.", Type: domain.RRTypeTXT, Class: domain.RRClassIN})
	resp.Answers = []domain.ResourceRecord{
		{Name: "example.com.", Type: domain.RRTypeTXT, Class: domain.RRClassIN, TTL: 60, Data: `"hello world"`},
	}

	packed, err := newTestCodec().EncodeResponse(resp)
	require.NoError(t, err)

	m := new(dns.Msg)
	require.NoError(t, m.Unpack(packed))
	require.Len(t, m.Answer, 1)
	txt, ok := m.Answer[0].(*dns.TXT)
	require.True(t, ok)
	assert.Equal(t, []string{"hello world"}, txt.Txt)
}

func TestNewQueryMsg(t *testing.T) {
	m, err := NewQueryMsg(domain.Question{ID: 77, Name: "example.com", Type: domain.RRTypeA})
	require.NoError(t, err)

	b, err := m.Pack()
	require.NoError(t, err)
	got := new(dns.Msg)
	require.NoError(t, got.Unpack(b))
	assert.Equal(t, uint16(77), got.Id)
	assert.False(t, got.Response)
	assert.False(t, got.RecursionDesired)
	require.Len(t, got.Question, 1)
	assert.Equal(t, "example.com.", got.Question[0].Name)
	assert.Equal(t, uint16(dns.ClassINET), got.Question[0].Qclass)

	_, err = NewQueryMsg(domain.Question{ID: 1})
	assert.Error(t, err)
}

func TestMsgCodec_DecodeResponse_Errors(t *testing.T) {
	codec := newTestCodec()
	reply, err := codec.EncodeResponse(domain.NewAuthoritativeResponse(
		domain.Question{ID: 10, Name: "example.com.", Type: domain.RRTypeA, Class: domain.RRClassIN}))
	require.NoError(t, err)

	_, err = codec.DecodeResponse(reply, 11)
	assert.ErrorContains(t, err, "ID mismatch")

	_, err = codec.DecodeResponse(packQuery(t, 10, "example.com.", dns.TypeA), 10)
	assert.ErrorContains(t, err, "not a response")

	_, err = codec.DecodeResponse([]byte{1, 2}, 10)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}
