package audit

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "decisions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := newTestStore(t)

	recs := []*Record{
		{SessionID: "s1", Environment: "claude-code", Decision: "allow", LastWritePos: -1, LastAllowPos: -1},
		{SessionID: "s1", Environment: "claude-code", Decision: "block", Reason: "unverified", LastWritePos: 4, LastAllowPos: 1},
		{SessionID: "s2", Environment: "cursor", Decision: "allow", LastWritePos: 2, LastAllowPos: 5},
	}
	base := time.Now().Add(-time.Minute)
	for i, rec := range recs {
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if rec.ID == "" {
			t.Error("Append should assign an ID")
		}
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d records, want 3", len(got))
	}

	// Chronological order
	if got[0].Decision != "allow" || got[1].Decision != "block" || got[2].Environment != "cursor" {
		t.Errorf("Unexpected order: %+v", got)
	}
	if got[1].LastWritePos != 4 || got[1].LastAllowPos != 1 {
		t.Errorf("positions = (%d, %d), want (4, 1)", got[1].LastWritePos, got[1].LastAllowPos)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := &Record{
			Environment:  "claude-code",
			Decision:     "allow",
			LastWritePos: i,
			LastAllowPos: i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d records, want 2", len(got))
	}
	// The two newest, chronological
	if got[0].LastWritePos != 3 || got[1].LastWritePos != 4 {
		t.Errorf("Unexpected records: %+v", got)
	}
}

func TestBySession(t *testing.T) {
	store := newTestStore(t)

	for _, session := range []string{"s1", "s2", "s1"} {
		if err := store.Append(&Record{SessionID: session, Environment: "claude-code", Decision: "allow", LastWritePos: -1, LastAllowPos: -1}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.BySession("s1")
	if err != nil {
		t.Fatalf("BySession failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("BySession returned %d records, want 2", len(got))
	}
}

func TestCleanupOld(t *testing.T) {
	store := newTestStore(t)

	old := &Record{Environment: "claude-code", Decision: "allow", LastWritePos: -1, LastAllowPos: -1, CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &Record{Environment: "claude-code", Decision: "block", LastWritePos: 0, LastAllowPos: -1}
	if err := store.Append(old); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(fresh); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	deleted, err := store.CleanupOld(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupOld failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("CleanupOld deleted %d rows, want 1", deleted)
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].Decision != "block" {
		t.Errorf("Expected only the fresh record to survive, got %+v", got)
	}
}
