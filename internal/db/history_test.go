package db

import (
	"path/filepath"
	"testing"
)

func tempHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndRecent(t *testing.T) {
	h := tempHistory(t)

	attempts := []Attempt{
		{SessionID: "s1", ScreenID: "main_menu", Target: "start", Strategy: StrategyTemplate, Found: false, Duration: 120},
		{SessionID: "s1", ScreenID: "main_menu", Target: "start", Strategy: StrategyVision, Found: true, CanvasX: 320, CanvasY: 178, Duration: 900},
	}
	for _, a := range attempts {
		if err := h.Record(a); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := h.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got))
	}
	// Newest first.
	if got[0].Strategy != StrategyVision || !got[0].Found {
		t.Errorf("newest attempt = %+v, want the vision hit", got[0])
	}
	if got[0].CanvasX != 320 || got[0].CanvasY != 178 {
		t.Errorf("coordinates = (%v, %v), want (320, 178)", got[0].CanvasX, got[0].CanvasY)
	}
}

func TestHitRate(t *testing.T) {
	h := tempHistory(t)

	for _, found := range []bool{true, false, true} {
		if err := h.Record(Attempt{
			SessionID: "s1", ScreenID: "sortie", Target: "attack",
			Strategy: StrategyTemplate, Found: found,
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	found, total, err := h.HitRate("sortie", "attack")
	if err != nil {
		t.Fatalf("HitRate: %v", err)
	}
	if found != 2 || total != 3 {
		t.Errorf("hit rate = %d/%d, want 2/3", found, total)
	}

	found, total, err = h.HitRate("nowhere", "nothing")
	if err != nil {
		t.Fatalf("HitRate: %v", err)
	}
	if found != 0 || total != 0 {
		t.Errorf("hit rate = %d/%d, want 0/0", found, total)
	}
}
