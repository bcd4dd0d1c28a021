/*
Package zonesync copies DNS record sets from an upstream authoritative name
server into a cloud-hosted DNS zone.

Usage will always start with [zonesync.New],
which returns a Client.
New requires the domain to transfer, a [Fetcher] source (usually
[UsingNameserver]), a target hosted zone, and a [Submitter] for the hosting
API (usually [UsingRoute53]).
A single call to Sync pulls a full zone snapshot, aggregates the records of
the requested types into one upsert per (name, type) pair, and submits them
in bounded batches.

Repeated runs are safe because every change is an upsert, but two instances
running concurrently against the same hosted zone will race each other; that
coordination is the caller's responsibility.
*/
package zonesync
