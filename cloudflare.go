package zonesync

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/cloudflare/cloudflare-go"
)

// UsingCloudflare registers Cloudflare as the hosting API. The hosted zone
// identifier passed to ToHostedZone must be a Cloudflare zone ID.
func UsingCloudflare(token string) Option {
	return func(c *Client) (err error) {
		if c.submitter, err = newCloudflareSubmitter(token); err != nil {
			return fmt.Errorf("zonesync.UsingCloudflare: error creating cloudflare API client: %w", err)
		}
		return nil
	}
}

func newCloudflareSubmitter(token string) (cf *cloudflareSubmitter, err error) {
	cf = new(cloudflareSubmitter)
	cf.api, err = cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudflare api client: %w", err)
	}
	cf.logger = discard
	cf.comment = "managed by zonesync"
	return cf, nil
}

type cloudflareSubmitter struct {
	api     *cloudflare.API
	logger  *log.Logger
	comment string // optional comment to attach to each new DNS entry
}

// SubmitChanges upserts the batch one record set at a time: list the records
// matching (name, type), delete them, recreate from the new values.
// Cloudflare has no atomic change-batch call, so unlike Route 53 a failed
// batch may leave its earlier record sets applied. The stop-on-first-failure
// contract still holds; the batch is simply not atomic.
func (cf *cloudflareSubmitter) SubmitChanges(ctx context.Context, zoneID string, sets []RecordSet) error {
	rc := cloudflare.ZoneIdentifier(zoneID)
	for _, rs := range sets {
		name := strings.TrimSuffix(rs.Name, ".")
		records, _, err := cf.api.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{
			Type: rs.Type,
			Name: name,
		})
		if err != nil {
			return fmt.Errorf("error listing %s records for %s: %w", rs.Type, name, err)
		}
		for _, r := range records {
			cf.logger.Printf("deleting stale record %s...", r.ID)
			if err := cf.api.DeleteDNSRecord(ctx, rc, r.ID); err != nil {
				return fmt.Errorf("unable to delete DNS record %s: %w", r.ID, err)
			}
		}
		for _, v := range rs.Values {
			record, err := cf.api.CreateDNSRecord(ctx, rc, cloudflare.CreateDNSRecordParams{
				Type:    rs.Type,
				Name:    name,
				Content: cloudflareContent(rs.Type, v),
				ZoneID:  zoneID,
				TTL:     int(rs.TTL),
				Comment: cf.comment,
			})
			if err != nil {
				return fmt.Errorf("error creating %s record for %s: %w", rs.Type, name, err)
			}
			cf.logger.Printf("created record %s", record.ID)
		}
	}
	return nil
}

// cloudflareContent converts a value from presentation form to the content
// Cloudflare stores. Only TXT and SPF differ: Cloudflare keeps the character
// strings unquoted.
func cloudflareContent(rtype, value string) string {
	if rtype != "TXT" && rtype != "SPF" {
		return value
	}
	return unquoteTxt(value)
}

// unquoteTxt joins the quoted character strings of TXT rdata back into raw
// content, decoding DNS \DDD escapes along the way.
func unquoteTxt(s string) string {
	var b strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inQuotes && i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]):
			n, _ := strconv.Atoi(s[i+1 : i+4])
			b.WriteByte(byte(n))
			i += 3
		case c == '\\' && inQuotes && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		case c == '"':
			inQuotes = !inQuotes
		case inQuotes:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
