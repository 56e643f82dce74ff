package webhooks

import (
	"sync"
	"testing"
)

func TestStatsRecord(t *testing.T) {
	s := NewStats()

	snap := s.Snapshot()
	if snap.TotalEvents != 0 || snap.LastProcessed != nil {
		t.Errorf("fresh stats should be empty: %+v", snap)
	}

	s.Record("push")
	s.Record("push")
	s.Record("ping")

	snap = s.Snapshot()
	if snap.TotalEvents != 3 {
		t.Errorf("TotalEvents = %d, want 3", snap.TotalEvents)
	}
	if snap.EventTypes["push"] != 2 || snap.EventTypes["ping"] != 1 {
		t.Errorf("EventTypes = %v", snap.EventTypes)
	}
	if snap.LastProcessed == nil {
		t.Error("LastProcessed should be set after a record")
	}
}

func TestStatsSnapshotIsolation(t *testing.T) {
	s := NewStats()
	s.Record("push")

	snap := s.Snapshot()
	snap.EventTypes["push"] = 99

	if s.Snapshot().EventTypes["push"] != 1 {
		t.Error("mutating a snapshot must not affect the recorder")
	}
}

func TestStatsConcurrent(t *testing.T) {
	s := NewStats()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Record("push")
			}
		}()
	}
	wg.Wait()

	if got := s.Snapshot().TotalEvents; got != 1000 {
		t.Errorf("TotalEvents = %d, want 1000", got)
	}
}
