// Package zone loads the static zone file into an immutable Table and matches
// query names against it.
//
// The zone file lists domains and their IPv4 addresses:
//
//	{"mappings": [{"example.com.": ["1.2.3.4"]}, {"example.org.": []}]}
//
// JSON is the canonical format; YAML and TOML files with the same shape are
// accepted when the file extension says so.
package zone

import (
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/udnsd/udns/internal/dns/common/log"
)

const mappingsKey = "mappings"

// Load reads the zone file at path and builds a Table. Every record gets ttl.
// Any problem with the file is returned as a *ConfigError.
//
// Every key of a mapping object becomes a zone. Keys inside one object are
// taken in lexicographic order because decoded objects carry no key order.
// A domain listed twice keeps its first position and its last address list.
func Load(path string, ttl uint32, logger log.Logger) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	raw, ok := k.Raw()[mappingsKey]
	if !ok {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("missing %q", mappingsKey)}
	}
	entries, err := toEntries(raw)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	t := NewTable()
	for i, entry := range entries {
		names := make([]string, 0, len(entry))
		for name := range entry {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 1 {
			logger.Warn(map[string]any{
				"entry":   i,
				"domains": names,
			}, "Mapping entry has more than one domain, adding each")
		}

		for _, name := range names {
			addrs, err := toAddresses(entry[name])
			if err != nil {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("%s[%d] %q: %w", mappingsKey, i, name, err)}
			}
			z, err := NewZoneRecord(name, addrs, ttl)
			if err != nil {
				return nil, &ConfigError{Path: path, Err: fmt.Errorf("%s[%d]: %w", mappingsKey, i, err)}
			}
			if !strings.HasSuffix(name, ".") {
				logger.Warn(map[string]any{"domain": name}, "Domain is not fully qualified and will never match a query")
			}
			if prev, ok := t.Get(name); ok {
				logger.Warn(map[string]any{
					"domain":   name,
					"replaced": len(prev.Addresses),
				}, "Domain listed more than once, later addresses win")
			}
			t.put(z)
			logger.Info(map[string]any{
				"domain":    name,
				"addresses": addrs,
			}, "Zone added")
		}
	}

	return t, nil
}

// parserFor picks the koanf parser for the zone file extension.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return json.Parser()
	}
}

// toEntries checks that the mappings value is a list of objects.
func toEntries(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is %T, want an object", mappingsKey, i, elem)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%q is %T, want a list", mappingsKey, raw)
	}
}

// toAddresses checks that a domain's value is a list of strings.
func toAddresses(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("address %v is %T, want a string", elem, elem)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, errors.New("addresses missing, want a list")
	default:
		return nil, fmt.Errorf("addresses are %T, want a list", raw)
	}
}

// isIPv4 accepts dotted-quad IPv4 addresses only.
func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}
