// Package arrivalstore persists the last grounded-aircraft position to disk
// so the terminal fallback survives restarts.
package arrivalstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

// Store implements domain.ArrivalStore as a single JSON file. Writes go
// through a temp file and rename so a crash mid-write never corrupts the
// record.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a store at path. The parent directory must exist.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted record, or nil when none exists yet.
func (s *Store) Load(_ context.Context) (*domain.ArrivalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read arrival record: %w", err)
	}

	var rec domain.ArrivalRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode arrival record: %w", err)
	}
	return &rec, nil
}

// Save replaces the persisted record. The newest arrival always wins.
func (s *Store) Save(_ context.Context, rec domain.ArrivalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode arrival record: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".arrival-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write arrival record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace arrival record: %w", err)
	}
	return nil
}
