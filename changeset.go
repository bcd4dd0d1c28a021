package zonesync

import (
	"sort"
)

// RecordSet is one upsert instruction: set the record set at (Name, Type) to
// exactly Values with the given TTL. Name is fully qualified with a trailing
// dot. Upserts create the record set if absent and replace it if present, so
// re-submitting the same state is a no-op.
type RecordSet struct {
	Name   string
	Type   string
	TTL    uint32
	Values []string
}

// buildChangeSet flattens the aggregate into a sequence ordered by
// (name, type), so batch contents are reproducible across runs over the same
// snapshot.
func buildChangeSet(agg map[recordKey]RecordSet) []RecordSet {
	keys := make([]recordKey, 0, len(agg))
	for key := range agg {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].rtype < keys[j].rtype
	})
	sets := make([]RecordSet, 0, len(keys))
	for _, key := range keys {
		sets = append(sets, agg[key])
	}
	return sets
}

// partition splits sets into contiguous batches of at most max entries; the
// last batch may be smaller. Concatenating the batches in order reproduces
// the input exactly.
func partition(sets []RecordSet, max int) [][]RecordSet {
	if len(sets) == 0 {
		return nil
	}
	batches := make([][]RecordSet, 0, (len(sets)+max-1)/max)
	for len(sets) > max {
		batches = append(batches, sets[:max])
		sets = sets[max:]
	}
	return append(batches, sets)
}
