// Package history keeps a local JSON Lines ledger of evidence runs so an
// operator can see what was uploaded, when, and under which result ids.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/evidence-collector/internal/log"
)

const (
	// maxRecords is the maximum number of runs retained in the ledger.
	maxRecords = 1000
	// maxErrorLen caps the error text stored with a record.
	maxErrorLen = 4096
	// maxLineSize is the longest ledger line readAll accepts.
	maxLineSize = 16 << 20
)

// Record captures the outcome of a single flow run.
type Record struct {
	Timestamp  time.Time `json:"ts"`
	Flow       string    `json:"flow"`
	Query      string    `json:"query"`
	RangeStart string    `json:"rangeStart"`
	RangeEnd   string    `json:"rangeEnd"`
	Outcome    string    `json:"outcome"`
	DryRun     bool      `json:"dryRun,omitempty"`
	Total      int       `json:"total"`
	Skipped    int       `json:"skipped,omitempty"`
	Uploads    []Upload  `json:"uploads,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Upload is one document sent during a run.
type Upload struct {
	Item      string `json:"item,omitempty"`
	Name      string `json:"name"`
	Contents  string `json:"contents,omitempty"`
	ResultID  int64  `json:"resultId,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
}

// Store manages persistence of run records as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a new store at <user cache dir>/evidence-collector/history.jsonl.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(cacheDir, "evidence-collector")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &Store{
		path: filepath.Join(dir, "history.jsonl"),
	}, nil
}

// NewStoreWithPath creates a store at the given path.
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds a record and prunes to the last maxRecords entries. An
// unreadable ledger is left untouched and the error returned.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return fmt.Errorf("failed to read history %s: %w", s.path, err)
	}

	if len(rec.Error) > maxErrorLen {
		rec.Error = rec.Error[:maxErrorLen] + "..."
	}
	records = append(records, rec)

	// Prune to last maxRecords
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n records, oldest first (or fewer if not enough exist).
func (s *Store) Recent(n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	if n <= 0 || len(records) <= n {
		return records, nil
	}
	return records[len(records)-n:], nil
}

// readAll reads all records from disk.
func (s *Store) readAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Debug("skipping malformed history line", "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

// writeAll writes all records to disk atomically.
func (s *Store) writeAll(records []Record) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.path)
}
