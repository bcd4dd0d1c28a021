package zonesync

import (
	"sort"
	"strings"
)

// supportedTypes is the set of record types the pipeline knows how to render
// and the hosting APIs accept.
var supportedTypes = map[string]bool{
	"A":     true,
	"AAAA":  true,
	"CNAME": true,
	"MX":    true,
	"NS":    true,
	"PTR":   true,
	"SPF":   true,
	"TXT":   true,
	"SRV":   true,
}

// SupportedRecordTypes returns the record types a filter may request,
// in sorted order.
func SupportedRecordTypes() []string {
	types := make([]string, 0, len(supportedTypes))
	for t := range supportedTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func validateRecordTypes(types []string) error {
	for _, t := range types {
		if !supportedTypes[t] {
			return UnsupportedRecordTypeError(t)
		}
	}
	return nil
}

type recordKey struct {
	name  string
	rtype string
}

// aggregate walks the snapshot restricted to the requested types and builds
// one record set per (qualified name, type) pair. The zone apex is skipped:
// the hosted zone's root records are managed separately and must never be
// overwritten by a sync.
func aggregate(zone *Zone, domain string, types []string) (map[recordKey]RecordSet, error) {
	if err := validateRecordTypes(types); err != nil {
		return nil, err
	}
	if zone == nil || zone.Len() == 0 {
		return nil, &EmptyZoneError{Domain: domain}
	}
	agg := make(map[recordKey]RecordSet)
	for _, rtype := range types {
		for _, owner := range zone.Owners() {
			if owner == "@" {
				continue
			}
			ttl, values, ok := zone.Lookup(owner, rtype)
			if !ok {
				continue
			}
			key := recordKey{name: qualify(owner, domain), rtype: rtype}
			rs := agg[key]
			rs.Name = key.name
			rs.Type = key.rtype
			rs.TTL = ttl
			rs.Values = append(rs.Values, values...)
			agg[key] = rs
		}
	}
	if len(agg) == 0 {
		return nil, &NoMatchingRecordsError{Domain: domain, Types: types}
	}
	return agg, nil
}

// qualify joins a relative owner name with the configured domain into a fully
// qualified, trailing-dot-terminated name. The result is the same whether or
// not the domain already carries the trailing dot.
func qualify(name, domain string) string {
	if strings.HasSuffix(domain, ".") {
		return name + "." + domain
	}
	return name + "." + domain + "."
}
