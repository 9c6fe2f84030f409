package internal

import (
	"bytes"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Stats is a struct containing internal counters
type Stats struct {
	startedAt time.Time

	counts  map[string]int64
	countMu sync.Mutex
}

var allStatKeys = []string{
	"bins_created",
	"bins_extended",
	"ingested",
	"invalid_samples",
	"merges_forced",
	"merges_relaxed",
	"merges_strict",
}

// NewStats returns a new instance of Stats
func NewStats() *Stats {

	s := &Stats{
		startedAt: time.Now().UTC(),
		counts:    make(map[string]int64),
	}

	for _, k := range allStatKeys {
		s.counts[k] = 0
	}

	return s
}

func (s *Stats) Set(key string, val int64) {
	if s == nil {
		return
	}
	s.countMu.Lock()
	defer s.countMu.Unlock()

	s.counts[key] = val
}

func (s *Stats) Add(key string, val int64) {
	if s == nil {
		return
	}
	s.countMu.Lock()
	defer s.countMu.Unlock()

	s.counts[key] += val
}

func (s *Stats) Incr(key string) {
	s.Add(key, 1)
}

func (s *Stats) Decr(key string) {
	s.Add(key, -1)
}

// Get returns the current value of a counter.
func (s *Stats) Get(key string) int64 {
	if s == nil {
		return 0
	}
	s.countMu.Lock()
	defer s.countMu.Unlock()

	return s.counts[key]
}

// Uptime returns the time elapsed since the Stats were created.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.startedAt)
}

// Map returns a copy of all counters.
func (s *Stats) Map() map[string]int64 {
	s.countMu.Lock()
	defer s.countMu.Unlock()

	m := make(map[string]int64, len(s.counts))
	for k, v := range s.counts {
		m[k] = v
	}
	return m
}

func (s *Stats) Bytes() []byte {
	s.countMu.Lock()
	defer s.countMu.Unlock()

	buf := bytes.NewBuffer([]byte{})
	var keys []string

	for k := range s.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := s.counts[k]

		writeStringOrPanic(buf, k)
		writeStringOrPanic(buf, ": ")

		writeStringOrPanic(buf, strconv.FormatInt(v, 10))
		writeStringOrPanic(buf, "\r\n")
	}

	return buf.Bytes()
}

func writeStringOrPanic(buf *bytes.Buffer, s string) {
	if _, err := buf.WriteString(s); err != nil {
		panic(err)
	}
}
