package zone

import "github.com/udnsd/udns/internal/dns/common/utils"

// Table maps configured domains to their ZoneRecord in load order.
// A Table is immutable once built and safe for concurrent readers.
type Table struct {
	zones []*ZoneRecord
	index map[string]int
}

// NewTable builds a Table from zones in order. A domain given twice keeps the
// position of its first occurrence and the records of its last.
func NewTable(zones ...*ZoneRecord) *Table {
	t := &Table{index: make(map[string]int, len(zones))}
	for _, z := range zones {
		t.put(z)
	}
	return t
}

// put is only called while a table is being built.
func (t *Table) put(z *ZoneRecord) {
	if i, ok := t.index[z.Domain]; ok {
		t.zones[i] = z
		return
	}
	t.index[z.Domain] = len(t.zones)
	t.zones = append(t.zones, z)
}

// Match returns the first zone, in load order, that qname equals or is a
// subdomain of. Load order decides between overlapping zones: if both
// "example.com." and "sub.example.com." are configured, whichever was loaded
// first answers for "www.sub.example.com.". Names are compared byte for byte.
func (t *Table) Match(qname string) (*ZoneRecord, bool) {
	for _, z := range t.zones {
		if utils.InZone(qname, z.Domain) {
			return z, true
		}
	}
	return nil, false
}

// Get returns the zone configured for exactly name.
func (t *Table) Get(name string) (*ZoneRecord, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.zones[i], true
}

// Domains returns the configured domains in load order.
func (t *Table) Domains() []string {
	out := make([]string, len(t.zones))
	for i, z := range t.zones {
		out[i] = z.Domain
	}
	return out
}

// Len returns the number of configured zones.
func (t *Table) Len() int {
	return len(t.zones)
}
