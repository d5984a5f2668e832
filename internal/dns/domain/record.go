package domain

import (
	"errors"
	"fmt"
)

// ResourceRecord is an authoritative resource record served from the zone table.
// Data holds the RDATA in presentation format (e.g. "192.0.2.1" for A,
// "10 mail.example.com." for MX); the wire codec is responsible for packing it.
type ResourceRecord struct {
	Name  string
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  string
}

// NewResourceRecord constructs a ResourceRecord and validates its fields.
func NewResourceRecord(name string, rrtype RRType, class RRClass, ttl uint32, data string) (ResourceRecord, error) {
	rr := ResourceRecord{
		Name:  name,
		Type:  rrtype,
		Class: class,
		TTL:   ttl,
		Data:  data,
	}
	if err := rr.Validate(); err != nil {
		return ResourceRecord{}, err
	}
	return rr, nil
}

// Validate checks whether the ResourceRecord fields are valid.
func (rr ResourceRecord) Validate() error {
	if rr.Name == "" {
		return errors.New("record name must not be empty")
	}
	if !rr.Type.IsKnown() || rr.Type == RRTypeANY || rr.Type == RRTypeOPT {
		return fmt.Errorf("invalid record type: %s", rr.Type)
	}
	if rr.Class != RRClassIN {
		return fmt.Errorf("invalid record class: %s", rr.Class)
	}
	if rr.Data == "" {
		return errors.New("record data must not be empty")
	}
	return nil
}

// WithName returns a copy of the record owned by name.
func (rr ResourceRecord) WithName(name string) ResourceRecord {
	rr.Name = name
	return rr
}

// String returns the record in zone file presentation format.
func (rr ResourceRecord) String() string {
	return fmt.Sprintf("%s\t%d\t%s\t%s\t%s", rr.Name, rr.TTL, rr.Class, rr.Type, rr.Data)
}
