package store

import (
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteDocumentStore {
	t.Helper()
	s := NewSQLiteDocumentStore()
	err := s.Initialize(map[string]string{
		"dataFile": filepath.Join(t.TempDir(), "taskflow.db"),
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreCRUD(t *testing.T) {
	s := newTestSQLiteStore(t)

	id, err := s.Insert("tasks", map[string]any{"title": "First", "status": "pending"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := s.Update("tasks", id, map[string]any{"status": "in-progress"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	docs, err := s.QueryEquals("tasks", "", nil, 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Fields["status"] != "in-progress" {
		t.Errorf("status = %v, want in-progress", docs[0].Fields["status"])
	}
	if docs[0].Fields["title"] != "First" {
		t.Errorf("patch touched an unnamed field: title = %v", docs[0].Fields["title"])
	}

	if err := s.Delete("tasks", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("tasks", id); err == nil {
		t.Fatal("deleting twice must fail with not-found")
	}
}

func TestSQLiteStoreUpdateUnknownID(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Update("tasks", "missing", map[string]any{"status": "completed"}); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestSQLiteStoreSetAtKeyUpsert(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.SetAtKey("users", "user_a", map[string]any{"name": "Alice"}); err != nil {
		t.Fatalf("SetAtKey failed: %v", err)
	}
	if err := s.SetAtKey("users", "user_a", map[string]any{"name": "Alice B"}); err != nil {
		t.Fatalf("second SetAtKey failed: %v", err)
	}

	docs, err := s.QueryEquals("users", "", nil, 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("upsert duplicated the record: %d documents", len(docs))
	}
	if docs[0].Fields["name"] != "Alice B" {
		t.Errorf("name = %v, want Alice B", docs[0].Fields["name"])
	}
}

func TestSQLiteStoreQueryEqualsByField(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.SetAtKey("users", "user_a", map[string]any{"email": "a@x.com"}); err != nil {
		t.Fatalf("SetAtKey failed: %v", err)
	}
	if err := s.SetAtKey("users", "user_b", map[string]any{"email": "b@x.com"}); err != nil {
		t.Fatalf("SetAtKey failed: %v", err)
	}

	docs, err := s.QueryEquals("users", "email", "a@x.com", 1)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "user_a" {
		t.Fatalf("QueryEquals returned %+v, want user_a", docs)
	}
}

func TestSQLiteStoreSubscribe(t *testing.T) {
	s := newTestSQLiteStore(t)

	sub, err := s.Subscribe("tasks")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if got := receiveSnapshot(t, sub); len(got) != 0 {
		t.Fatalf("initial snapshot has %d documents, want 0", len(got))
	}

	id, err := s.Insert("tasks", map[string]any{"title": "New"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	after := receiveSnapshot(t, sub)
	if len(after) != 1 || after[0].ID != id {
		t.Fatalf("snapshot after insert = %+v, want the inserted document", after)
	}
}

func TestSQLiteStoreCollectionsAreIsolated(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.SetAtKey("users", "user_a", map[string]any{"name": "Alice"}); err != nil {
		t.Fatalf("SetAtKey failed: %v", err)
	}
	if _, err := s.Insert("tasks", map[string]any{"title": "Task"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	users, err := s.QueryEquals("users", "", nil, 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	tasks, err := s.QueryEquals("tasks", "", nil, 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(users) != 1 || len(tasks) != 1 {
		t.Fatalf("collections bled into each other: users=%d tasks=%d", len(users), len(tasks))
	}
}
