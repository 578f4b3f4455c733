package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestAppendAndRecent(t *testing.T) {
	s := NewStoreWithPath(filepath.Join(t.TempDir(), "history.jsonl"))

	got, err := s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 records, got %d", len(got))
	}

	rec := Record{
		Timestamp:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Flow:       "jira",
		Query:      "project = PROJ",
		RangeStart: "2023-12-02",
		RangeEnd:   "2024-03-02",
		Outcome:    "done",
		Total:      1,
		Uploads:    []Upload{{Name: "evidence.xlsx", Contents: "1 jira issues", ResultID: 42}},
	}
	if err := s.Append(rec); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Record{Flow: "github", Outcome: "no-results"}); err != nil {
		t.Fatal(err)
	}

	got, err = s.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if diff := cmp.Diff(rec, got[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if got[1].Outcome != "no-results" {
		t.Errorf("expected second outcome no-results, got %q", got[1].Outcome)
	}
}

func TestRecentLimitsResults(t *testing.T) {
	s := NewStoreWithPath(filepath.Join(t.TempDir(), "history.jsonl"))

	for i := range 10 {
		if err := s.Append(Record{Total: i}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	// Should be the last 3 entries
	if got[0].Total != 7 || got[2].Total != 9 {
		t.Fatalf("expected totals 7..9, got %d..%d", got[0].Total, got[2].Total)
	}
}

func TestPrune(t *testing.T) {
	s := NewStoreWithPath(filepath.Join(t.TempDir(), "history.jsonl"))

	for i := range maxRecords + 5 {
		if err := s.Append(Record{Total: i}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != maxRecords {
		t.Fatalf("expected %d records after prune, got %d", maxRecords, len(got))
	}
	if got[0].Total != 5 {
		t.Fatalf("expected first record Total 5, got %d", got[0].Total)
	}
}

func TestMissingFile(t *testing.T) {
	s := NewStoreWithPath(filepath.Join(t.TempDir(), "nonexistent", "history.jsonl"))

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 records, got %d", len(got))
	}
}

func TestMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	content := `{"ts":"2024-01-01T00:00:00Z","flow":"jira","total":10}
not json at all
{"ts":"2024-01-02T00:00:00Z","flow":"github","total":20}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewStoreWithPath(path).Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(got))
	}
	if got[0].Flow != "jira" || got[1].Total != 20 {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestLongErrorKeepsHistory(t *testing.T) {
	s := NewStoreWithPath(filepath.Join(t.TempDir(), "history.jsonl"))

	for i := range 3 {
		if err := s.Append(Record{Flow: "github", Total: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Append(Record{Flow: "jira", Outcome: "aborted", Error: strings.Repeat("x", 70*1024)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Record{Flow: "jira", Outcome: "done"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 records, got %d", len(got))
	}
	if n := len(got[3].Error); n != maxErrorLen+len("...") {
		t.Errorf("stored error length = %d, want %d", n, maxErrorLen+3)
	}
}

func TestLongLineReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"flow":"jira","error":"` + strings.Repeat("y", 100*1024) + `"}` + "\n" +
		`{"flow":"github"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewStoreWithPath(path).Recent(0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestAppendLeavesUnreadableLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	if err := os.Mkdir(path, 0700); err != nil {
		t.Fatal(err)
	}

	if err := NewStoreWithPath(path).Append(Record{Flow: "jira"}); err == nil {
		t.Fatal("expected error appending to an unreadable ledger")
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		t.Fatalf("ledger path was replaced: info=%v err=%v", info, err)
	}
}
