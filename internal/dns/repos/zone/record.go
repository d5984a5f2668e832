package zone

import (
	"fmt"

	"github.com/udnsd/udns/internal/dns/common/utils"
	"github.com/udnsd/udns/internal/dns/domain"
)

// Fixed SOA contents synthesized for every zone.
const (
	soaSerial  uint32 = 201307231
	soaRefresh uint32 = 60 * 60 * 1
	soaRetry   uint32 = 60 * 60 * 3
	soaExpire  uint32 = 60 * 60 * 24
	soaMinimum uint32 = 60 * 60 * 1

	// rname label; the SOA mailbox becomes apache.<domain>.
	hostmasterLabel = "apache"

	mxPreference = 10
)

// ZoneRecord is everything the server answers for one configured domain.
// A ZoneRecord is never modified after NewZoneRecord returns.
type ZoneRecord struct {
	Domain    string
	Addresses []domain.ResourceRecord
	SOA       domain.ResourceRecord
	NS1       domain.ResourceRecord
	NS2       domain.ResourceRecord
	MX        domain.ResourceRecord
	CNAME     domain.ResourceRecord

	records   []domain.ResourceRecord
	authority []domain.ResourceRecord
}

// NewZoneRecord synthesizes the record set for name: one A record per address,
// an SOA, NS ns1.<name> and ns2.<name>, and MX and CNAME pointing at name itself.
// Every record carries ttl.
func NewZoneRecord(name string, addresses []string, ttl uint32) (*ZoneRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("domain name must not be empty")
	}

	z := &ZoneRecord{Domain: name}
	for _, addr := range addresses {
		if !isIPv4(addr) {
			return nil, fmt.Errorf("domain %s: invalid IPv4 address %q", name, addr)
		}
		rr, err := domain.NewResourceRecord(name, domain.RRTypeA, domain.RRClassIN, ttl, addr)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", name, err)
		}
		z.Addresses = append(z.Addresses, rr)
	}

	ns1 := utils.ChildLabel(name, "ns1")
	ns2 := utils.ChildLabel(name, "ns2")
	soaData := fmt.Sprintf("%s %s %d %d %d %d %d",
		ns1, utils.ChildLabel(name, hostmasterLabel),
		soaSerial, soaRefresh, soaRetry, soaExpire, soaMinimum)

	synth := []struct {
		dst    *domain.ResourceRecord
		rrtype domain.RRType
		data   string
	}{
		{&z.SOA, domain.RRTypeSOA, soaData},
		{&z.NS1, domain.RRTypeNS, ns1},
		{&z.NS2, domain.RRTypeNS, ns2},
		{&z.MX, domain.RRTypeMX, fmt.Sprintf("%d %s", mxPreference, name)},
		{&z.CNAME, domain.RRTypeCNAME, name},
	}
	for _, s := range synth {
		rr, err := domain.NewResourceRecord(name, s.rrtype, domain.RRClassIN, ttl, s.data)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", name, err)
		}
		*s.dst = rr
	}

	z.records = make([]domain.ResourceRecord, 0, len(z.Addresses)+5)
	z.records = append(z.records, z.Addresses...)
	z.records = append(z.records, z.SOA, z.NS1, z.NS2, z.MX, z.CNAME)
	z.authority = []domain.ResourceRecord{z.NS1, z.NS2, z.SOA}

	return z, nil
}

// Records returns the zone's answerable records in fixed order:
// addresses, SOA, NS ns1, NS ns2, MX, CNAME. The slice must not be modified.
func (z *ZoneRecord) Records() []domain.ResourceRecord {
	return z.records
}

// Authority returns the authority section for the zone: NS ns1, NS ns2, SOA.
// The slice must not be modified.
func (z *ZoneRecord) Authority() []domain.ResourceRecord {
	return z.authority
}
