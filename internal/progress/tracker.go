// Package progress tracks in-flight download state, keyed by download id.
// The table is the only shared mutable state in the process: written by one
// fetch per id, read by the progress stream endpoint. Nothing is persisted;
// ids are only meaningful within one process lifetime.
package progress

import (
	"sync"
	"time"
)

// Statuses a record can carry.
const (
	StatusInitializing = "initializing"
	StatusDownloading  = "downloading"
	StatusProcessing   = "processing"
	StatusComplete     = "complete"
	StatusTimeout      = "timeout"
)

// Record is the latest known state of one download. Records are replaced
// wholesale on every update, never merged field by field. The byte/speed/eta
// fields are only meaningful while Status is downloading.
type Record struct {
	Status     string  `json:"status"`
	Percentage int     `json:"percentage"`
	Downloaded int64   `json:"downloaded,omitempty"`
	Total      int64   `json:"total,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	ETA        int     `json:"eta,omitempty"`
}

// Tracker is an injectable id→record table. Writes are last-write-wins; by
// construction at most one writer exists per id at a time.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]Record)}
}

// Set stores the record for id, overwriting any previous one.
func (t *Tracker) Set(id string, rec Record) {
	t.mu.Lock()
	t.records[id] = rec
	t.mu.Unlock()
}

// Get returns the current record for id, or ok=false if the id is unknown
// (never created, or already expired).
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.RLock()
	rec, ok := t.records[id]
	t.mu.RUnlock()
	return rec, ok
}

// ExpireAfter schedules removal of id after delay. A pending expiry is not
// cancelled if the id is written again before the timer fires; the record
// self-expires regardless. Callers must not reuse an id for a new task
// while an expiry is pending.
func (t *Tracker) ExpireAfter(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.records, id)
		t.mu.Unlock()
	})
}
