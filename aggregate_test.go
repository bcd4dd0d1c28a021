package zonesync

import (
	"errors"
	"strings"
	"testing"

	"github.com/miekg/dns"
)

func TestQualify(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   string
	}{
		{"host", "example.com", "host.example.com."},
		{"host", "example.com.", "host.example.com."},
		{"a.b", "example.com", "a.b.example.com."},
		{"www", "sub.example.com.", "www.sub.example.com."},
	}
	for _, tt := range tests {
		if got := qualify(tt.name, tt.domain); got != tt.want {
			t.Errorf("qualify(%q, %q) = %q; want %q", tt.name, tt.domain, got, tt.want)
		}
	}
}

func TestAggregateSkipsApex(t *testing.T) {
	zone := NewZone("example.com.")
	zone.AddRecordSet("@", "A", 300, "9.9.9.9")
	zone.AddRecordSet("www", "A", 300, "1.2.3.4", "1.2.3.5")

	agg, err := aggregate(zone, "example.com", []string{"A"})
	if err != nil {
		t.Fatalf("aggregate failed: %s", err)
	}
	if len(agg) != 1 {
		t.Fatalf("Expected 1 record set; got %d", len(agg))
	}
	rs, ok := agg[recordKey{name: "www.example.com.", rtype: "A"}]
	if !ok {
		t.Fatalf("Expected record set for www.example.com. A; got %+v", agg)
	}
	if rs.TTL != 300 {
		t.Errorf("Expected TTL 300; got %d", rs.TTL)
	}
	if len(rs.Values) != 2 || rs.Values[0] != "1.2.3.4" || rs.Values[1] != "1.2.3.5" {
		t.Errorf("Expected values [1.2.3.4 1.2.3.5]; got %v", rs.Values)
	}
}

func TestAggregateRestrictsToRequestedTypes(t *testing.T) {
	zone := NewZone("example.com.")
	zone.AddRecordSet("www", "A", 300, "1.2.3.4")
	zone.AddRecordSet("www", "AAAA", 300, "2001:db8::1")
	zone.AddRecordSet("mail", "MX", 3600, "10 mx.example.com.")

	agg, err := aggregate(zone, "example.com", []string{"A", "MX"})
	if err != nil {
		t.Fatalf("aggregate failed: %s", err)
	}
	if len(agg) != 2 {
		t.Fatalf("Expected 2 record sets; got %d: %+v", len(agg), agg)
	}
	if _, ok := agg[recordKey{name: "www.example.com.", rtype: "AAAA"}]; ok {
		t.Error("AAAA was not requested but showed up in the aggregate")
	}
}

func TestAggregateEmptyZone(t *testing.T) {
	var emptyErr *EmptyZoneError
	_, err := aggregate(NewZone("example.com."), "example.com", []string{"A"})
	if !errors.As(err, &emptyErr) {
		t.Fatalf("Expected EmptyZoneError; got %v", err)
	}
}

func TestAggregateNoMatchingRecords(t *testing.T) {
	zone := NewZone("example.com.")
	zone.AddRecordSet("ns1", "NS", 3600, "ns1.example.com.")

	var noMatch *NoMatchingRecordsError
	_, err := aggregate(zone, "example.com", []string{"A"})
	if !errors.As(err, &noMatch) {
		t.Fatalf("Expected NoMatchingRecordsError; got %v", err)
	}
	if noMatch.Domain != "example.com" {
		t.Errorf("Expected domain example.com in error; got %q", noMatch.Domain)
	}
}

func TestAggregateUnsupportedType(t *testing.T) {
	zone := NewZone("example.com.")
	zone.AddRecordSet("www", "A", 300, "1.2.3.4")

	var unsupported UnsupportedRecordTypeError
	_, err := aggregate(zone, "example.com", []string{"A", "NAPTR"})
	if !errors.As(err, &unsupported) {
		t.Fatalf("Expected UnsupportedRecordTypeError; got %v", err)
	}
	if string(unsupported) != "NAPTR" {
		t.Errorf("Expected the error to name NAPTR; got %q", string(unsupported))
	}
}

// A mixed-case configured domain must qualify cleanly: owners served in
// lowercase still relativize, so nothing reaches qualify fully qualified.
func TestAggregateMixedCaseDomain(t *testing.T) {
	zone := NewZone("Example.com.")
	for _, s := range []string{
		"example.com. 3600 IN SOA ns1.example.com. admin.example.com. 1 7200 3600 1209600 300",
		"www.example.com. 300 IN A 1.2.3.4",
	} {
		rr, err := dns.NewRR(s)
		if err != nil {
			t.Fatalf("bad test record %q: %s", s, err)
		}
		zone.addRR(rr)
	}

	agg, err := aggregate(zone, "Example.com", []string{"A"})
	if err != nil {
		t.Fatalf("aggregate failed: %s", err)
	}
	if _, ok := agg[recordKey{name: "www.Example.com.", rtype: "A"}]; !ok {
		t.Fatalf("Expected record set for www.Example.com. A; got %+v", agg)
	}
	for key := range agg {
		if strings.Contains(key.name, "..") {
			t.Errorf("qualified name is corrupted: %q", key.name)
		}
	}
}

func TestAggregateTTLLastWriteWins(t *testing.T) {
	zone := NewZone("example.com.")
	zone.AddRecordSet("www", "A", 300, "1.2.3.4")
	zone.AddRecordSet("www", "A", 600, "1.2.3.5")

	agg, err := aggregate(zone, "example.com", []string{"A"})
	if err != nil {
		t.Fatalf("aggregate failed: %s", err)
	}
	rs := agg[recordKey{name: "www.example.com.", rtype: "A"}]
	if rs.TTL != 600 {
		t.Errorf("Expected last-seen TTL 600; got %d", rs.TTL)
	}
	if len(rs.Values) != 2 {
		t.Errorf("Expected both values to survive the TTL overwrite; got %v", rs.Values)
	}
}
