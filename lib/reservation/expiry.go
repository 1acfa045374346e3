// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import "sort"

// expirationIndex is an ordered map keyed by expiration timestamp,
// each entry holding the set of reservation ids due at that second —
// spec.md §9's second index structure. Multiple reservations can share
// a timestamp (two clients reserving in the same second), so each
// bucket is a set, not a single id.
type expirationIndex struct {
	keys    []uint64 // sorted ascending, unique
	buckets map[uint64]map[uint32]struct{}
}

func (idx *expirationIndex) insert(id uint32, expiration uint64) {
	if idx.buckets == nil {
		idx.buckets = make(map[uint64]map[uint32]struct{})
	}

	bucket, ok := idx.buckets[expiration]
	if !ok {
		bucket = make(map[uint32]struct{})
		idx.buckets[expiration] = bucket
		idx.insertKey(expiration)
	}
	bucket[id] = struct{}{}
}

func (idx *expirationIndex) remove(id uint32, expiration uint64) {
	bucket, ok := idx.buckets[expiration]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(idx.buckets, expiration)
		idx.removeKey(expiration)
	}
}

// sweepBefore returns every id whose bucket key is strictly less than
// now, and drops those buckets and keys from the index. Per spec.md
// §4.5, the walk reads now once and consumes every key below it in one
// pass.
func (idx *expirationIndex) sweepBefore(now uint64) []uint32 {
	cut := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= now })

	var ids []uint32
	for _, key := range idx.keys[:cut] {
		for id := range idx.buckets[key] {
			ids = append(ids, id)
		}
		delete(idx.buckets, key)
	}
	idx.keys = idx.keys[cut:]
	return ids
}

func (idx *expirationIndex) insertKey(key uint64) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= key })
	idx.keys = append(idx.keys, 0)
	copy(idx.keys[i+1:], idx.keys[i:])
	idx.keys[i] = key
}

func (idx *expirationIndex) removeKey(key uint64) {
	i := sort.Search(len(idx.keys), func(i int) bool { return idx.keys[i] >= key })
	if i < len(idx.keys) && idx.keys[i] == key {
		idx.keys = append(idx.keys[:i], idx.keys[i+1:]...)
	}
}
