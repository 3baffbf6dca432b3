// Package geolog keeps a rolling record of geocoding attempts. The record
// feeds the debug endpoint and is the primary tool for growing the alias
// table: strings that repeatedly miss or resolve abroad are candidates for
// manual pinning.
package geolog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

// ResultType classifies the outcome of one geocoding attempt.
type ResultType string

const (
	ResultUS            ResultType = "us"
	ResultInternational ResultType = "international"
	ResultNoResult      ResultType = "no_result"
	ResultError         ResultType = "error"
	ResultSkipped       ResultType = "skipped"
)

// Entry is one recorded attempt.
type Entry struct {
	Time        time.Time  `json:"ts"`
	Query       string     `json:"query"`
	Result      ResultType `json:"result"`
	DisplayName string     `json:"display_name,omitempty"`
	Detail      string     `json:"detail,omitempty"`
}

// Stats summarizes the retained window by result type.
type Stats struct {
	Total  int                `json:"total"`
	Counts map[ResultType]int `json:"counts"`
}

// Log is a bounded in-memory ring of entries mirrored to a JSON-lines file.
// The file only ever grows; the in-memory window is what Recent and Stats
// see. A nil *Log is a no-op, so callers never need to guard.
type Log struct {
	path       string
	maxEntries int
	logger     *slog.Logger

	mu      sync.Mutex
	entries []Entry
}

// Open creates a log backed by path, loading up to maxEntries of history.
// An empty path keeps the log memory-only.
func Open(path string, maxEntries int, logger *slog.Logger) (*Log, error) {
	l := &Log{path: path, maxEntries: maxEntries, logger: logger}
	if path == "" {
		return l, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("open geocode log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		l.entries = append(l.entries, e)
		if len(l.entries) > maxEntries {
			l.entries = l.entries[1:]
		}
	}
	return l, scanner.Err()
}

// Record appends an attempt. File write failures are logged, never fatal.
func (l *Log) Record(query string, result ResultType, displayName, detail string) {
	if l == nil {
		return
	}
	e := Entry{
		Time:        domain.Now(),
		Query:       query,
		Result:      result,
		DisplayName: displayName,
		Detail:      detail,
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[1:]
	}
	l.mu.Unlock()

	if l.path == "" {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.logger.Warn("geocode log write failed", "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		l.logger.Warn("geocode log write failed", "error", err)
	}
}

// Recent returns up to n entries, newest first.
func (l *Log) Recent(n int) []Entry {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i] = l.entries[len(l.entries)-1-i]
	}
	return out
}

// Stats summarizes the retained entries.
func (l *Log) Stats() Stats {
	s := Stats{Counts: make(map[ResultType]int)}
	if l == nil {
		return s
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	s.Total = len(l.entries)
	for _, e := range l.entries {
		s.Counts[e.Result]++
	}
	return s
}
