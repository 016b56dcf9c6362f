// Package stats implements the shared traffic aggregation store.
//
// One Store is written to by every capture session and read by the
// renderer. Record and Snapshot serialize on a single mutex, so the
// totals, the per-protocol breakdown and the connection table always
// agree at every observation point.
package stats

import (
	"sync"
	"time"

	"github.com/kestrel-net/kestrel/internal/core"
)

// Options configure a Store.
type Options struct {
	// MaxConnections caps the connection table with LRU eviction.
	// Zero keeps every connection for the process lifetime.
	MaxConnections int
}

// Store accumulates running traffic statistics across capture sessions.
type Store struct {
	mu sync.Mutex

	totalPackets uint64
	totalBytes   uint64
	protoPackets map[core.Protocol]uint64
	protoBytes   map[core.Protocol]uint64
	conns        connTable

	started    time.Time
	lastUpdate time.Time
}

// New creates an empty store. The monitoring start timestamp is set here
// and never changes.
func New(opts Options) (*Store, error) {
	conns, err := newConnTable(opts.MaxConnections)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Store{
		protoPackets: make(map[core.Protocol]uint64),
		protoBytes:   make(map[core.Protocol]uint64),
		conns:        conns,
		started:      now,
		lastUpdate:   now,
	}, nil
}

// Record folds one packet record into the statistics. Every counter is
// updated under a single lock acquisition, so a concurrent Snapshot can
// never observe the totals without the matching per-protocol update.
func (s *Store) Record(rec core.PacketRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalPackets++
	s.totalBytes += uint64(rec.Length)
	s.protoPackets[rec.Protocol]++
	s.protoBytes[rec.Protocol] += uint64(rec.Length)
	s.conns.inc(rec.ConnectionKey())
	s.lastUpdate = time.Now()
}

// Snapshot returns a consistent copy of the aggregate state, sufficient
// to render a full report while capture continues.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalPackets: s.totalPackets,
		TotalBytes:   s.totalBytes,
		ProtoPackets: make(map[core.Protocol]uint64, len(s.protoPackets)),
		ProtoBytes:   make(map[core.Protocol]uint64, len(s.protoBytes)),
		Connections:  make(map[core.ConnectionKey]uint64, s.conns.len()),
		Started:      s.started,
		LastUpdate:   s.lastUpdate,
		Taken:        time.Now(),
	}
	for p, n := range s.protoPackets {
		snap.ProtoPackets[p] = n
	}
	for p, n := range s.protoBytes {
		snap.ProtoBytes[p] = n
	}
	s.conns.each(func(k core.ConnectionKey, n uint64) {
		snap.Connections[k] = n
	})
	return snap
}
