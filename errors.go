package zonesync

import (
	"fmt"
	"strings"
)

// TransferError reports a failed zone transfer: the connection could not be
// established, the server refused the transfer, or the transport was
// interrupted partway through.
type TransferError struct {
	Server string
	Domain string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("zone transfer for %s from %s failed: %s", e.Domain, e.Server, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// EmptyZoneError reports a transfer that succeeded but produced zero owner
// names. This usually means zone transfers are disabled upstream, not that
// the zone has no records of interest.
type EmptyZoneError struct {
	Server string
	Domain string
}

func (e *EmptyZoneError) Error() string {
	if e.Server == "" {
		return fmt.Sprintf("zone transfer for %s returned an empty zone - is the transfer allowed?", e.Domain)
	}
	return fmt.Sprintf("zone transfer for %s from %s returned an empty zone - is the transfer allowed?", e.Domain, e.Server)
}

// UnsupportedRecordTypeError names a requested record type outside the
// supported set.
type UnsupportedRecordTypeError string

func (e UnsupportedRecordTypeError) Error() string {
	return fmt.Sprintf("unsupported record type %q (supported: %s)", string(e), strings.Join(SupportedRecordTypes(), ", "))
}

// NoMatchingRecordsError reports a zone that transferred fine but held no
// records of any requested type. Distinct from EmptyZoneError.
type NoMatchingRecordsError struct {
	Domain string
	Types  []string
}

func (e *NoMatchingRecordsError) Error() string {
	return fmt.Sprintf("zone %s has no records of the requested types (%s)", e.Domain, strings.Join(e.Types, ", "))
}

// SubmissionError reports a rejected change batch. Batch is 1-based; batches
// after the failed one were never attempted.
type SubmissionError struct {
	Batch   int
	Batches int
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission of batch %d of %d failed: %s", e.Batch, e.Batches, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
