package storage

import (
	"testing"
	"time"
)

func TestDeltaFrom(t *testing.T) {
	if got := deltaFrom(100, nil); got != 100 {
		t.Fatalf("first capture of day should use full volume, got %d", got)
	}

	prior := int64(100)
	if got := deltaFrom(250, &prior); got != 150 {
		t.Fatalf("expected delta 150, got %d", got)
	}

	prior = 250
	if got := deltaFrom(400, &prior); got != 150 {
		t.Fatalf("expected delta 150, got %d", got)
	}

	// Cumulative volume going down (provider correction) yields a negative
	// delta rather than being clamped.
	prior = 500
	if got := deltaFrom(400, &prior); got != -100 {
		t.Fatalf("expected delta -100, got %d", got)
	}
}

func TestSortByCapture(t *testing.T) {
	base := time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)
	batch := []IntradaySnapshot{
		{Ticker: "B", CapturedAt: base.Add(2 * time.Hour)},
		{Ticker: "A", CapturedAt: base},
		{Ticker: "C", CapturedAt: base.Add(time.Hour)},
		{Ticker: "B", CapturedAt: base},
	}

	sortByCapture(batch)

	want := []string{"A", "B", "C", "B"}
	for i, ticker := range want {
		if batch[i].Ticker != ticker {
			t.Fatalf("position %d: expected %s, got %s", i, ticker, batch[i].Ticker)
		}
	}
	for i := 1; i < len(batch); i++ {
		if batch[i].CapturedAt.Before(batch[i-1].CapturedAt) {
			t.Fatalf("batch not ordered by capture time at %d", i)
		}
	}
}
