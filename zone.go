package zonesync

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Zone is the snapshot produced by one zone transfer: per owner name, the
// typed record sets present in the zone. Owner names are stored relative to
// the zone origin, with the apex as "@".
type Zone struct {
	origin string
	owners map[string]map[string]*rdataset
}

type rdataset struct {
	ttl    uint32
	values []string
}

// NewZone returns an empty snapshot for the given origin.
// The origin is taken as a fully qualified zone name and stored in canonical
// (lowercase) form, since DNS names compare case-insensitively.
func NewZone(origin string) *Zone {
	return &Zone{
		origin: dns.CanonicalName(origin),
		owners: make(map[string]map[string]*rdataset),
	}
}

// AddRecordSet records values for (owner, rtype). The owner name is relative
// to the origin ("@" for the apex). Duplicate values are dropped; the TTL of
// the last call wins.
func (z *Zone) AddRecordSet(owner, rtype string, ttl uint32, values ...string) {
	sets, ok := z.owners[owner]
	if !ok {
		sets = make(map[string]*rdataset)
		z.owners[owner] = sets
	}
	rs, ok := sets[rtype]
	if !ok {
		rs = &rdataset{}
		sets[rtype] = rs
	}
	rs.ttl = ttl
	for _, v := range values {
		if !contains(rs.values, v) {
			rs.values = append(rs.values, v)
		}
	}
}

// Len reports the number of owner names in the snapshot.
func (z *Zone) Len() int { return len(z.owners) }

// Owners returns the owner names in sorted order, so that walking the
// snapshot is deterministic within a run.
func (z *Zone) Owners() []string {
	names := make([]string, 0, len(z.owners))
	for name := range z.owners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the rdataset for (owner, rtype), if present.
func (z *Zone) Lookup(owner, rtype string) (ttl uint32, values []string, ok bool) {
	rs, ok := z.owners[owner][rtype]
	if !ok {
		return 0, nil, false
	}
	return rs.ttl, rs.values, true
}

func (z *Zone) addRR(rr dns.RR) {
	rtype, value, ok := rdataString(rr)
	if !ok {
		return
	}
	owner, ok := z.relative(rr.Header().Name)
	if !ok {
		return
	}
	z.AddRecordSet(owner, rtype, rr.Header().Ttl, value)
}

// relative strips the origin from a fully qualified owner name, comparing in
// canonical form the way DNS does. The apex becomes "@"; names outside the
// zone report ok=false and are dropped at ingestion.
func (z *Zone) relative(name string) (string, bool) {
	name = dns.CanonicalName(name)
	if name == z.origin {
		return "@", true
	}
	if rel := strings.TrimSuffix(name, "."+z.origin); rel != name {
		return rel, true
	}
	return "", false
}

func contains(values []string, v string) bool {
	for _, have := range values {
		if have == v {
			return true
		}
	}
	return false
}

// rdataString renders one parsed record to the type name and presentation
// form of its value. Types we don't sync (RRSIG, DNSKEY, ...) report ok=false
// and are dropped at ingestion.
func rdataString(rr dns.RR) (rtype, value string, ok bool) {
	switch v := rr.(type) {
	case *dns.A:
		return "A", v.A.String(), true
	case *dns.AAAA:
		return "AAAA", v.AAAA.String(), true
	case *dns.CNAME:
		return "CNAME", v.Target, true
	case *dns.MX:
		return "MX", fmt.Sprintf("%d %s", v.Preference, v.Mx), true
	case *dns.NS:
		return "NS", v.Ns, true
	case *dns.PTR:
		return "PTR", v.Ptr, true
	case *dns.SPF:
		return "SPF", rdataText(rr), true
	case *dns.TXT:
		return "TXT", rdataText(rr), true
	case *dns.SRV:
		return "SRV", fmt.Sprintf("%d %d %d %s", v.Priority, v.Weight, v.Port, v.Target), true
	case *dns.SOA:
		return "SOA", fmt.Sprintf("%s %s %d %d %d %d %d", v.Ns, v.Mbox, v.Serial, v.Refresh, v.Retry, v.Expire, v.Minttl), true
	}
	return "", "", false
}

// rdataText renders the rdata portion of a record in presentation form,
// keeping DNS \DDD escaping for TXT character strings rather than Go quoting.
func rdataText(rr dns.RR) string {
	return strings.TrimPrefix(rr.String(), rr.Header().String())
}

// axfrFetcher performs a full zone transfer (AXFR) over TCP against a single
// upstream server, optionally signed with TSIG.
type axfrFetcher struct {
	server     string
	tsigName   string
	tsigAlg    string
	tsigSecret string
}

func (f *axfrFetcher) FetchZone(ctx context.Context, domain string) (*Zone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fqdn := dns.Fqdn(domain)
	m := new(dns.Msg)
	m.SetAxfr(fqdn)

	tr := new(dns.Transfer)
	if deadline, ok := ctx.Deadline(); ok {
		timeout := time.Until(deadline)
		tr.DialTimeout = timeout
		tr.ReadTimeout = timeout
		tr.WriteTimeout = timeout
	}
	if f.tsigName != "" {
		tr.TsigSecret = map[string]string{f.tsigName: f.tsigSecret}
		m.SetTsig(f.tsigName, f.tsigAlg, 300, time.Now().Unix())
	}

	env, err := tr.In(m, f.server)
	if err != nil {
		return nil, &TransferError{Server: f.server, Domain: domain, Err: err}
	}
	return f.ingest(domain, env)
}

// ingest drains the transfer envelopes into a snapshot. A transfer that
// yields no owner names at all is reported as EmptyZoneError rather than an
// empty snapshot, so the caller can tell "transfer disabled upstream" apart
// from "no records of the requested types".
func (f *axfrFetcher) ingest(domain string, env <-chan *dns.Envelope) (*Zone, error) {
	zone := NewZone(dns.Fqdn(domain))
	for e := range env {
		if e.Error != nil {
			return nil, &TransferError{Server: f.server, Domain: domain, Err: e.Error}
		}
		for _, rr := range e.RR {
			zone.addRR(rr)
		}
	}
	if zone.Len() == 0 {
		return nil, &EmptyZoneError{Server: f.server, Domain: domain}
	}
	return zone, nil
}

// withDefaultPort appends the DNS port when the server address doesn't
// carry one.
func withDefaultPort(server string) string {
	if _, _, err := net.SplitHostPort(server); err != nil {
		return net.JoinHostPort(server, "53")
	}
	return server
}
