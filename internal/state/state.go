// Package state persists event stream cursors between runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultCursor names the cursor of an unfiltered event stream.
const DefaultCursor = "default"

// State represents the persistent position of event streams
type State struct {
	Version     string             `json:"version"`
	LastUpdated time.Time          `json:"last_updated"`
	Cursors     map[string]*Cursor `json:"cursors"`
	mu          sync.RWMutex       `json:"-"`
	filePath    string             `json:"-"`
	modified    bool               `json:"-"`
}

// Cursor is the position of one event stream
type Cursor struct {
	LastEvent time.Time `json:"last_event"`
	Seen      int64     `json:"seen"`
}

// CursorName derives a stable cursor name from event filters.
func CursorName(filters []string) string {
	if len(filters) == 0 {
		return DefaultCursor
	}
	sorted := append([]string(nil), filters...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Load loads the state from a JSON file at the specified path.
// Returns an empty state if the file doesn't exist.
func Load(filePath string) (*State, error) {
	s := &State{
		Version:  "1",
		Cursors:  make(map[string]*Cursor),
		filePath: filePath,
	}

	// If file doesn't exist, return empty state
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return s, nil
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- filePath comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read state file from %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", filePath, err)
	}
	if s.Cursors == nil {
		s.Cursors = make(map[string]*Cursor)
	}

	s.filePath = filePath
	return s, nil
}

// Save writes the state atomically if it changed since the last save.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveUnlocked()
}

// saveUnlocked performs the save operation without acquiring the lock
// Caller must hold the lock
func (s *State) saveUnlocked() error {
	if !s.modified {
		return nil // No changes to save
	}

	s.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", s.filePath, err)
	}

	// Atomic write: write to temp file, then rename
	dir := filepath.Dir(s.filePath)
	tmpFile, err := os.CreateTemp(dir, "state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in directory %s for state %s: %w", dir, s.filePath, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to write temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to sync temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}

	_ = tmpFile.Close() // Explicit ignore - we've already synced

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to rename temp file %s to %s: %w", tmpPath, s.filePath, err)
	}

	s.modified = false
	return nil
}

// Resume returns the time to replay events from for the named cursor.
// The second result is false when the cursor is unknown.
func (s *State) Resume(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, exists := s.Cursors[name]; exists && !c.LastEvent.IsZero() {
		return c.LastEvent, true
	}
	return time.Time{}, false
}

// Advance records an event time. Cursors never move backwards.
func (s *State) Advance(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.Cursors[name]
	if !exists {
		c = &Cursor{}
		s.Cursors[name] = c
	}
	c.Seen++
	if at.After(c.LastEvent) {
		c.LastEvent = at
	}
	s.modified = true
}

// Reset forgets the named cursor and persists the change.
// It reports whether the cursor existed.
func (s *State) Reset(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Cursors[name]; !exists {
		return false, nil
	}
	delete(s.Cursors, name)
	s.modified = true
	return true, s.saveUnlocked()
}

// GetAllCursors returns a copy of all cursors.
func (s *State) GetAllCursors() map[string]Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Cursor, len(s.Cursors))
	for name, c := range s.Cursors {
		result[name] = *c
	}
	return result
}
