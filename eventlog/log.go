// SPDX-License-Identifier: GPL-3.0-or-later

package eventlog

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

// Log is the append-only sequence of [Event].
//
// Construct using [New].
type Log struct {
	// events contains the events in arrival order.
	events []Event

	// mu provides mutual exclusion.
	mu sync.Mutex

	// timeNow is the function returning the current time.
	timeNow func() time.Time
}

// New constructs a new empty [*Log].
func New() *Log {
	return &Log{timeNow: time.Now}
}

// Append appends an event to the log.
//
// We copy at most [MaxPayloadPrefix] bytes of the payload prefix, so the
// caller is free to reuse its buffers once this method returns.
func (l *Log) Append(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = l.timeNow()
	}
	ev.PayloadPrefix = slices.Clone(ev.PayloadPrefix[:min(len(ev.PayloadPrefix), MaxPayloadPrefix)])
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

// Len returns the number of events in the log.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Snapshot is an immutable view of the [*Log].
type Snapshot struct {
	// Events contains the events in arrival order.
	Events []Event

	// Stats contains the per-listener statistics.
	Stats map[Key]*Bucket
}

// Snapshot copies the events and computes the statistics.
//
// The lock is only held while copying, so appends are not blocked
// while we compute the statistics.
func (l *Log) Snapshot() *Snapshot {
	l.mu.Lock()
	events := slices.Clone(l.events)
	l.mu.Unlock()

	stats := make(map[Key]*Bucket)
	for idx := range events {
		key := events[idx].Key()
		bucket, found := stats[key]
		if !found {
			bucket = &Bucket{}
			stats[key] = bucket
		}
		bucket.add(&events[idx])
	}
	return &Snapshot{Events: events, Stats: stats}
}

// Keys returns the statistics keys sorted using [Key.Compare].
func (s *Snapshot) Keys() []Key {
	keys := make([]Key, 0, len(s.Stats))
	for key := range s.Stats {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// WriteStats writes the statistics table to w.
func (s *Snapshot) WriteStats(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "STATISTICS - %d total events\n", len(s.Events))
	for _, key := range s.Keys() {
		bucket := s.Stats[key]
		fmt.Fprintf(&sb, "%-25s: %4d conn, %8d bytes, %d clients\n",
			key, bucket.Count, bucket.Bytes, bucket.Clients())
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
