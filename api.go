package zonesync

import (
	"context"
)

// Fetcher pulls a full zone snapshot for a domain from an upstream name
// server. A single call makes a single attempt; retries are the caller's
// concern.
type Fetcher interface {
	FetchZone(ctx context.Context, domain string) (*Zone, error)
}

// Submitter applies one batch of record set upserts to a hosted zone.
// The batch never exceeds the client's configured batch size.
type Submitter interface {
	SubmitChanges(ctx context.Context, zoneID string, sets []RecordSet) error
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, domain string) (*Zone, error)

func (f FetcherFunc) FetchZone(ctx context.Context, domain string) (*Zone, error) {
	return f(ctx, domain)
}
