package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "targets.json"))
}

func TestUpsertAndFindRoundTrip(t *testing.T) {
	s := tempStore(t)

	if err := s.UpsertTarget("main_menu", "start", 10, 20); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	rec, err := s.FindTarget("main_menu", "start")
	if err != nil {
		t.Fatalf("FindTarget: %v", err)
	}
	if rec.CenterCanvas != [2]float64{10, 20} {
		t.Errorf("center = %v, want [10 20]", rec.CenterCanvas)
	}
	if rec.Radius != DefaultRadius {
		t.Errorf("radius = %v, want default %v", rec.Radius, DefaultRadius)
	}
	if rec.LastSeen == 0 {
		t.Error("last_seen not set")
	}
}

func TestUpsertReplacesInPlace(t *testing.T) {
	s := tempStore(t)

	if err := s.UpsertTarget("main_menu", "start", 10, 20); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}
	if err := s.UpsertTarget("main_menu", "supply", 50, 60); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}
	if err := s.UpsertTarget("main_menu", "start", 30, 40); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	targets := s.Targets("main_menu")
	if len(targets) != 2 {
		t.Fatalf("got %d records, want 2 (no duplicate appended)", len(targets))
	}
	// Order-preserving replacement: "start" keeps its original slot.
	if targets[0].Name != "start" || targets[1].Name != "supply" {
		t.Errorf("order = [%s, %s], want [start, supply]", targets[0].Name, targets[1].Name)
	}
	if targets[0].CenterCanvas != [2]float64{30, 40} {
		t.Errorf("center = %v, want updated [30 40]", targets[0].CenterCanvas)
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "targets.json")

	s1 := NewStore(path)
	if err := s1.UpsertTargetRadius("sortie", "attack", 100, 200, 24); err != nil {
		t.Fatalf("UpsertTargetRadius: %v", err)
	}

	s2 := NewStore(path)
	rec, err := s2.FindTarget("sortie", "attack")
	if err != nil {
		t.Fatalf("FindTarget after reload: %v", err)
	}
	if rec.CenterCanvas != [2]float64{100, 200} || rec.Radius != 24 {
		t.Errorf("reloaded record = %+v", rec)
	}
}

func TestBackingFileShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	s := NewStore(path)
	if err := s.UpsertTarget("main_menu", "start", 10, 20); err != nil {
		t.Fatalf("UpsertTarget: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading backing file: %v", err)
	}

	var doc map[string]struct {
		Targets []map[string]any `json:"targets"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("backing file is not the expected shape: %v", err)
	}
	entry, ok := doc["main_menu"]
	if !ok || len(entry.Targets) != 1 {
		t.Fatalf("unexpected document: %s", raw)
	}
	for _, key := range []string{"name", "center_canvas", "radius", "last_seen"} {
		if _, ok := entry.Targets[0][key]; !ok {
			t.Errorf("target record missing %q: %s", key, raw)
		}
	}
}

func TestCorruptFileResetsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	s := NewStore(path)
	if _, err := s.FindTarget("main_menu", "start"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound from an empty store", err)
	}

	// The store stays usable after the reset.
	if err := s.UpsertTarget("main_menu", "start", 1, 2); err != nil {
		t.Fatalf("UpsertTarget after corrupt load: %v", err)
	}
	if _, err := s.FindTarget("main_menu", "start"); err != nil {
		t.Errorf("FindTarget after recovery: %v", err)
	}
}

func TestFindTargetPicksFreshestDuplicate(t *testing.T) {
	// Duplicates cannot be produced through UpsertTarget; simulate a
	// hand-edited file.
	path := filepath.Join(t.TempDir(), "targets.json")
	doc := `{
		"main_menu": {
			"targets": [
				{"name": "start", "center_canvas": [1, 1], "radius": 16, "last_seen": 100},
				{"name": "start", "center_canvas": [2, 2], "radius": 16, "last_seen": 300},
				{"name": "start", "center_canvas": [3, 3], "radius": 16, "last_seen": 200}
			]
		}
	}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	s := NewStore(path)
	rec, err := s.FindTarget("main_menu", "start")
	if err != nil {
		t.Fatalf("FindTarget: %v", err)
	}
	if rec.CenterCanvas != [2]float64{2, 2} {
		t.Errorf("center = %v, want the last_seen=300 record", rec.CenterCanvas)
	}
}

func TestFindTargetUnknownScreen(t *testing.T) {
	s := tempStore(t)
	if _, err := s.FindTarget("nowhere", "start"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
