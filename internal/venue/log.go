package venue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists venues between runs. The contract is load-existing-ids
// before write: callers consult LoadIDs so that repeated discovery is
// idempotent and strictly append-only. An embedded key-value store could
// substitute behind the same interface.
type Store interface {
	LoadIDs() (map[string]struct{}, error)
	Load() ([]Venue, error)
	Append(v Venue) error
	Close() error
}

// Log is the line-delimited JSON implementation of Store: one venue per
// line, append-only, safe to re-open for resumption.
type Log struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// OpenLog opens (or creates) the venue log at path for appending.
func OpenLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create venue log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open venue log %s: %w", path, err)
	}
	return &Log{path: path, f: f}, nil
}

// LoadIDs returns the set of venue ids already persisted.
func (l *Log) LoadIDs() (map[string]struct{}, error) {
	venues, err := l.Load()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(venues))
	for _, v := range venues {
		ids[v.ID] = struct{}{}
	}
	return ids, nil
}

// Load reads every venue record in the log. Blank lines are skipped; a
// malformed line is an error since the log is machine-written.
func (l *Log) Load() ([]Venue, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open venue log %s: %w", l.path, err)
	}
	defer f.Close()

	var venues []Venue
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var v Venue
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, fmt.Errorf("decode venue log line: %w", err)
		}
		venues = append(venues, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read venue log: %w", err)
	}
	return venues, nil
}

// Append writes one venue as a single JSON line.
func (l *Log) Append(v Venue) error {
	if v.ID == "" {
		return fmt.Errorf("venue id is required")
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal venue: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("append venue: %w", err)
	}
	return nil
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
