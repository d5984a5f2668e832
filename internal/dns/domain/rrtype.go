package domain

import (
	"fmt"
	"strings"
)

// RRType represents a DNS resource record type (e.g. A, AAAA, MX).
// See IANA DNS Parameters for assigned codes.
type RRType uint16

// DNS Resource Record Type constants
const (
	RRTypeA     RRType = 1   // A - IPv4 address
	RRTypeNS    RRType = 2   // NS - Name server
	RRTypeCNAME RRType = 5   // CNAME - Canonical name
	RRTypeSOA   RRType = 6   // SOA - Start of authority
	RRTypePTR   RRType = 12  // PTR - Pointer
	RRTypeMX    RRType = 15  // MX - Mail exchange
	RRTypeTXT   RRType = 16  // TXT - Text
	RRTypeAAAA  RRType = 28  // AAAA - IPv6 address
	RRTypeSRV   RRType = 33  // SRV - Service
	RRTypeOPT   RRType = 41  // OPT - EDNS option
	RRTypeANY   RRType = 255 // ANY - Any type (query only, "*")
)

var rrTypeNames = map[RRType]string{
	RRTypeA:     "A",
	RRTypeNS:    "NS",
	RRTypeCNAME: "CNAME",
	RRTypeSOA:   "SOA",
	RRTypePTR:   "PTR",
	RRTypeMX:    "MX",
	RRTypeTXT:   "TXT",
	RRTypeAAAA:  "AAAA",
	RRTypeSRV:   "SRV",
	RRTypeOPT:   "OPT",
	RRTypeANY:   "ANY",
}

// IsKnown returns true if the RRType has a name in this package.
// Unknown types are still legal in queries; they simply never match a zone record.
func (t RRType) IsKnown() bool {
	_, ok := rrTypeNames[t]
	return ok
}

// Selects reports whether a question of type t asks for records of type rr:
// the types are equal, or t is the ANY wildcard.
func (t RRType) Selects(rr RRType) bool {
	return t == RRTypeANY || t == rr
}

// String returns the textual representation of the RRType.
// For unknown types, it returns "TYPE<value>" (RFC 3597 notation).
func (t RRType) String() string {
	if name, ok := rrTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE%d", t)
}

// RRTypeFromString converts a record type mnemonic to its RRType value.
// "*" is accepted as an alias for ANY. Unknown names return 0.
func RRTypeFromString(s string) RRType {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "*" {
		return RRTypeANY
	}
	for t, name := range rrTypeNames {
		if name == s {
			return t
		}
	}
	return 0
}
