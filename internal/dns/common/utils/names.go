package utils

import "strings"

// ChildLabel returns the name formed by prepending label to parent,
// e.g. ChildLabel("example.com.", "ns1") is "ns1.example.com.".
// Names are joined as written; no case folding or dot fixing is applied.
func ChildLabel(parent, label string) string {
	return label + "." + parent
}

// InZone reports whether name equals zone or is a subdomain of it.
// The comparison is byte-exact: "WWW.example.com." is not in "example.com."
// and "badexample.com." is not in "example.com.".
func InZone(name, zone string) bool {
	return name == zone || strings.HasSuffix(name, "."+zone)
}
