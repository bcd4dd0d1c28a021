package zonesync

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/miekg/dns"
)

// DefaultBatchSize caps the number of upserts sent per change request. The
// hosting API rejects oversized change batches, so submissions are split into
// batches of at most this many record sets unless WithBatchSize says
// otherwise.
const DefaultBatchSize = 98

// DefaultRecordTypes is the filter applied when WithRecordTypes is not used.
var DefaultRecordTypes = []string{"A", "AAAA", "CNAME", "MX", "TXT"}

var discard = log.New(io.Discard, "", log.LstdFlags)

// New returns a Client that syncs the records of domain into a hosted zone.
//
// A Fetcher (UsingNameserver or UsingFetcher), a target zone (ToHostedZone)
// and a Submitter (UsingRoute53, UsingCloudflare or UsingSubmitter) are
// required. The record type filter is validated here, before any network
// activity.
func New(domain string, options ...Option) (*Client, error) {
	if domain == "" {
		return nil, fmt.Errorf("zonesync.New: domain cannot be empty")
	}
	c := &Client{
		domain:    domain,
		types:     append([]string(nil), DefaultRecordTypes...),
		batchSize: DefaultBatchSize,
		logger:    discard,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("zonesync.New: option %d returned an error: %w", i, err)
		}
	}

	if c.fetcher == nil {
		if c.nameserver == "" {
			return nil, fmt.Errorf("zonesync.New: no zone source was registered - use zonesync.UsingNameserver or zonesync.UsingFetcher")
		}
		c.fetcher = &axfrFetcher{
			server:     withDefaultPort(c.nameserver),
			tsigName:   c.tsigName,
			tsigAlg:    c.tsigAlg,
			tsigSecret: c.tsigSecret,
		}
	}
	if c.submitter == nil {
		return nil, fmt.Errorf("zonesync.New: no hosting API was registered - use zonesync.UsingRoute53 or similar")
	}
	if c.zoneID == "" {
		return nil, fmt.Errorf("zonesync.New: no target zone was registered - use zonesync.ToHostedZone")
	}
	if err := validateRecordTypes(c.types); err != nil {
		return nil, err
	}

	// this lets us propagate the logger to dependencies that use one even if
	// WithLogger was called before the dependencies were registered
	withLogger(c.logger)(c)
	return c, nil
}

// Option configures a Client during New.
type Option func(*Client) error

// UsingNameserver registers the upstream server to transfer the zone from.
// The ":53" port is assumed when addr doesn't carry one.
func UsingNameserver(addr string) Option {
	return func(c *Client) error {
		if addr == "" {
			return fmt.Errorf("nameserver address cannot be empty")
		}
		c.nameserver = addr
		return nil
	}
}

// UsingFetcher registers a custom zone source in place of the AXFR client.
func UsingFetcher(f Fetcher) Option {
	return func(c *Client) error {
		if f == nil {
			return fmt.Errorf("fetcher cannot be nil")
		}
		c.fetcher = f
		return nil
	}
}

// UsingSubmitter registers a custom hosting API client.
func UsingSubmitter(s Submitter) Option {
	return func(c *Client) error {
		if s == nil {
			return fmt.Errorf("submitter cannot be nil")
		}
		c.submitter = s
		return nil
	}
}

// ToHostedZone registers the identifier of the target zone at the hosting
// API. The identifier is opaque to the pipeline.
func ToHostedZone(id string) Option {
	return func(c *Client) error {
		if id == "" {
			return fmt.Errorf("hosted zone id cannot be empty")
		}
		c.zoneID = id
		return nil
	}
}

// WithRecordTypes restricts the sync to the given record types. Every type
// must be in the supported set; see SupportedRecordTypes.
func WithRecordTypes(types ...string) Option {
	return func(c *Client) error {
		if len(types) == 0 {
			return fmt.Errorf("at least one record type is required")
		}
		if err := validateRecordTypes(types); err != nil {
			return err
		}
		c.types = append([]string(nil), types...)
		return nil
	}
}

// WithBatchSize overrides DefaultBatchSize. Mostly useful for tests; the
// default matches the hosting API's per-request limit.
func WithBatchSize(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return fmt.Errorf("batch size must be at least 1; got %d", n)
		}
		c.batchSize = n
		return nil
	}
}

// WithTSIG signs the zone transfer request with the given key. The algorithm
// follows miekg/dns naming ("hmac-sha256." etc) and defaults to hmac-sha256.
func WithTSIG(name, algorithm, secret string) Option {
	return func(c *Client) error {
		if name == "" || secret == "" {
			return fmt.Errorf("tsig key name and secret are both required")
		}
		if algorithm == "" {
			algorithm = "hmac-sha256."
		}
		// the transfer client looks the secret up by the canonical key name
		c.tsigName = dns.Fqdn(name)
		c.tsigAlg = algorithm
		c.tsigSecret = secret
		return nil
	}
}

// WithLogger directs progress messages to logger. A nil logger discards
// them. Logging never affects control flow or the submitted data.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = discard
		}
		c.logger = logger
		return nil
	}
}

func withLogger(logger *log.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = discard
		}
		type setLogger interface {
			SetLogger(*log.Logger)
		}
		switch s := c.submitter.(type) {
		case *route53Submitter:
			s.logger = logger
		case *cloudflareSubmitter:
			s.logger = logger
		case setLogger:
			s.SetLogger(logger)
		}
		return nil
	}
}

// Client runs the sync pipeline. Construct it with New.
type Client struct {
	fetcher   Fetcher
	submitter Submitter

	domain     string
	nameserver string
	zoneID     string
	types      []string
	batchSize  int

	tsigName   string
	tsigAlg    string
	tsigSecret string

	logger *log.Logger
}

// Result is the accounting for one successful sync run.
type Result struct {
	// Upserts is the number of record sets submitted.
	Upserts int
	// Batches is the number of change requests made.
	Batches int
}

// Sync runs the pipeline once: transfer the zone, aggregate the requested
// record types, and submit the upserts in order, one batch per request.
//
// Sync stops at the first failed batch and returns a SubmissionError naming
// it; earlier batches remain applied remotely. It never reports partial
// success - re-running after a failure is safe because every change is an
// upsert.
func (c *Client) Sync(ctx context.Context) (*Result, error) {
	c.logger.Printf("starting zone transfer for %s", c.domain)
	zone, err := c.fetcher.FetchZone(ctx, c.domain)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("zone transfer complete: %d owner names", zone.Len())

	agg, err := aggregate(zone, c.domain, c.types)
	if err != nil {
		return nil, err
	}
	sets := buildChangeSet(agg)
	c.logger.Printf("aggregated %d record sets for types %v", len(sets), c.types)

	batches := partition(sets, c.batchSize)
	for i, batch := range batches {
		c.logger.Printf("submitting batch %d of %d (%d upserts)", i+1, len(batches), len(batch))
		if err := c.submitter.SubmitChanges(ctx, c.zoneID, batch); err != nil {
			return nil, &SubmissionError{Batch: i + 1, Batches: len(batches), Err: err}
		}
	}
	c.logger.Printf("sync complete: %d upserts in %d batches", len(sets), len(batches))
	return &Result{Upserts: len(sets), Batches: len(batches)}, nil
}
