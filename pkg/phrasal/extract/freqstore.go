// Package extract derives candidate phrase alignments from sampled
// subcorpora and accumulates their weighted frequencies.
package extract

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FreqStore accumulates alignment frequencies keyed by content hash,
// bucketed by rendered byte length. Holding hashes instead of full
// strings bounds memory to the number of distinct alignments; two
// alignments with equal hash and length are assumed identical. That is
// strictly wrong, but there are plenty of possible hashes before a
// collision occurs, and collisions are deliberately not detected.
type FreqStore struct {
	buckets map[int]map[uint64]int64
	total   int
}

// NewFreqStore returns an empty store.
func NewFreqStore() *FreqStore {
	return &FreqStore{buckets: make(map[int]map[uint64]int64)}
}

// Add accumulates weight for the alignment identified by its rendered
// length and hash, reporting whether it was seen for the first time.
func (s *FreqStore) Add(length int, hash uint64, weight int64) bool {
	bucket, ok := s.buckets[length]
	if !ok {
		bucket = make(map[uint64]int64)
		s.buckets[length] = bucket
	}
	if _, seen := bucket[hash]; !seen {
		bucket[hash] = weight
		s.total++
		return true
	}
	bucket[hash] += weight
	return false
}

// Lookup returns the accumulated frequency for a length/hash pair.
func (s *FreqStore) Lookup(length int, hash uint64) int64 {
	return s.buckets[length][hash]
}

// Total reports the number of distinct alignments seen so far.
func (s *FreqStore) Total() int { return s.total }

// Release drops the hash buckets, keeping the running total. Used once
// the aggregation pipeline has indexed every record by frequency.
func (s *FreqStore) Release() {
	s.buckets = make(map[int]map[uint64]int64)
}

// Spill writes the buckets to w in a compact hex format and drops them,
// so a large transient structure (such as the co-occurrence database)
// can use the memory. Restore is the inverse.
func (s *FreqStore) Spill(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for length, bucket := range s.buckets {
		if _, err := fmt.Fprintf(bw, "%x\n", length); err != nil {
			return err
		}
		for hash, freq := range bucket {
			if _, err := fmt.Fprintf(bw, "%x %x\n", hash, freq); err != nil {
				return err
			}
		}
	}
	s.buckets = make(map[int]map[uint64]int64)
	return bw.Flush()
}

// Restore reloads buckets previously written by Spill. The running
// total is left untouched: the spilled records are the same alignments
// that produced it.
func (s *FreqStore) Restore(r io.Reader) error {
	var bucket map[uint64]int64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)
	for scanner.Scan() {
		line := scanner.Text()
		if sep := strings.IndexByte(line, ' '); sep < 0 {
			length, err := strconv.ParseInt(line, 16, 64)
			if err != nil {
				return err
			}
			bucket = make(map[uint64]int64)
			s.buckets[int(length)] = bucket
		} else {
			hash, err := strconv.ParseUint(line[:sep], 16, 64)
			if err != nil {
				return err
			}
			freq, err := strconv.ParseInt(line[sep+1:], 16, 64)
			if err != nil {
				return err
			}
			bucket[hash] = freq
		}
	}
	return scanner.Err()
}
