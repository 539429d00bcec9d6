// Package state persists per-screen target knowledge in a JSON file so that
// previously resolved canvas centers can be reused across sessions.
//
// The store is advisory: it is a cache of where targets were last seen, not a
// source of truth. A missing or corrupt backing file resets to empty rather
// than failing the caller. Single-process, single-writer access is assumed;
// concurrent processes sharing the same path race with last-writer-wins.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// DefaultRadius is the click radius recorded for a target when the caller has
// no better estimate.
const DefaultRadius = 16.0

// ErrNotFound reports that no record exists for the requested screen/name.
var ErrNotFound = errors.New("target not found")

// TargetRecord is one remembered target on a screen. CenterCanvas is in
// canvas-relative device pixels, the space detections are made in.
type TargetRecord struct {
	Name         string     `json:"name"`
	CenterCanvas [2]float64 `json:"center_canvas"`
	Radius       float64    `json:"radius"`
	LastSeen     int64      `json:"last_seen"`
}

// screenEntry holds the target list for one logical screen.
type screenEntry struct {
	Targets []TargetRecord `json:"targets"`
}

// Store is a JSON-file-backed map of screen id to remembered targets. Load is
// lazy and idempotent; every mutation saves eagerly, so callers never flush.
type Store struct {
	path   string
	data   map[string]*screenEntry
	loaded bool

	// now is swappable for tests.
	now func() int64
}

// NewStore creates a store backed by the file at path. The file is not read
// until first access.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		data: map[string]*screenEntry{},
		now:  func() int64 { return time.Now().Unix() },
	}
}

// Load reads the backing file if present. It is idempotent and never fails:
// a missing file or unparseable content resets the store to empty.
func (s *Store) Load() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.data = map[string]*screenEntry{}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Store] failed to read %s, starting empty: %v", s.path, err)
		}
		return
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Printf("[Store] failed to parse %s, starting empty: %v", s.path, err)
		s.data = map[string]*screenEntry{}
		return
	}
	if s.data == nil {
		s.data = map[string]*screenEntry{}
	}
}

// Save serializes the full mapping to the backing file, creating parent
// directories as needed.
func (s *Store) Save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// UpsertTarget records a target center with the default radius.
func (s *Store) UpsertTarget(screenID, name string, cx, cy float64) error {
	return s.UpsertTargetRadius(screenID, name, cx, cy, DefaultRadius)
}

// UpsertTargetRadius records a target center for a screen. An existing record
// with the same name is replaced in place, keeping its position in the list;
// otherwise the record is appended. LastSeen is set to the current time and
// the store is persisted immediately.
func (s *Store) UpsertTargetRadius(screenID, name string, cx, cy, radius float64) error {
	s.Load()

	rec := TargetRecord{
		Name:         name,
		CenterCanvas: [2]float64{cx, cy},
		Radius:       radius,
		LastSeen:     s.now(),
	}

	entry := s.data[screenID]
	if entry == nil {
		entry = &screenEntry{}
		s.data[screenID] = entry
	}

	replaced := false
	for i := range entry.Targets {
		if entry.Targets[i].Name == name {
			entry.Targets[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		entry.Targets = append(entry.Targets, rec)
	}

	return s.Save()
}

// FindTarget returns the freshest record with the given name on a screen.
// Upsert keeps names unique, but lookup tolerates accidental duplicates by
// picking the greatest LastSeen.
func (s *Store) FindTarget(screenID, name string) (TargetRecord, error) {
	s.Load()

	entry := s.data[screenID]
	if entry == nil {
		return TargetRecord{}, ErrNotFound
	}

	var best TargetRecord
	found := false
	for _, t := range entry.Targets {
		if t.Name != name {
			continue
		}
		if !found || t.LastSeen > best.LastSeen {
			best = t
			found = true
		}
	}
	if !found {
		return TargetRecord{}, ErrNotFound
	}
	return best, nil
}

// Targets returns a copy of the target list for a screen, in stored order.
func (s *Store) Targets(screenID string) []TargetRecord {
	s.Load()
	entry := s.data[screenID]
	if entry == nil {
		return nil
	}
	out := make([]TargetRecord, len(entry.Targets))
	copy(out, entry.Targets)
	return out
}

// Screens returns the known screen ids.
func (s *Store) Screens() []string {
	s.Load()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids
}
