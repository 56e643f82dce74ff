package webhooks

import (
	"sync"
	"time"
)

type StatsSnapshot struct {
	TotalEvents   int64            `json:"total_events"`
	EventTypes    map[string]int64 `json:"event_types"`
	LastProcessed *time.Time       `json:"last_processed,omitempty"`
}

// Stats counts processed events per type. Safe for concurrent use.
type Stats struct {
	mu            sync.Mutex
	total         int64
	byType        map[string]int64
	lastProcessed time.Time
}

func NewStats() *Stats {
	return &Stats{byType: make(map[string]int64)}
}

func (s *Stats) Record(eventType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.byType[eventType]++
	s.lastProcessed = time.Now()
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := make(map[string]int64, len(s.byType))
	for k, v := range s.byType {
		types[k] = v
	}

	snap := StatsSnapshot{TotalEvents: s.total, EventTypes: types}
	if !s.lastProcessed.IsZero() {
		t := s.lastProcessed
		snap.LastProcessed = &t
	}
	return snap
}
