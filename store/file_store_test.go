package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T, format string) *FileDocumentStore {
	t.Helper()
	s := NewFileDocumentStore()
	err := s.Initialize(map[string]string{
		"dataDir":        t.TempDir(),
		"dataFileFormat": format,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func receiveSnapshot(t *testing.T, sub *Subscription) []Document {
	t.Helper()
	select {
	case snapshot, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return snapshot
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestFileStoreInsertAndQuery(t *testing.T) {
	s := newTestFileStore(t, "json")

	id, err := s.Insert("tasks", map[string]any{"title": "First", "status": "pending"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == "" {
		t.Fatal("Insert returned an empty id")
	}

	docs, err := s.QueryEquals("tasks", "", nil, 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].ID != id {
		t.Errorf("document id = %s, want %s", docs[0].ID, id)
	}
	if docs[0].Fields["title"] != "First" {
		t.Errorf("title = %v, want First", docs[0].Fields["title"])
	}
}

func TestFileStoreQueryEqualsByField(t *testing.T) {
	s := newTestFileStore(t, "json")

	if _, err := s.Insert("users", map[string]any{"email": "a@x.com", "role": "manager"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := s.Insert("users", map[string]any{"email": "b@x.com", "role": "employee"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	docs, err := s.QueryEquals("users", "email", "b@x.com", 1)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(docs))
	}
	if docs[0].Fields["role"] != "employee" {
		t.Errorf("role = %v, want employee", docs[0].Fields["role"])
	}

	none, err := s.QueryEquals("users", "email", "missing@x.com", 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestFileStoreQueryLimit(t *testing.T) {
	s := newTestFileStore(t, "json")

	for i := 0; i < 5; i++ {
		if _, err := s.Insert("tasks", map[string]any{"n": i}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	docs, err := s.QueryEquals("tasks", "", nil, 2)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("limit 2 returned %d documents", len(docs))
	}
}

func TestFileStoreSetAtKeyUpsert(t *testing.T) {
	s := newTestFileStore(t, "json")

	if err := s.SetAtKey("users", "user_a", map[string]any{"name": "Alice", "role": "employee"}); err != nil {
		t.Fatalf("SetAtKey failed: %v", err)
	}
	if err := s.SetAtKey("users", "user_a", map[string]any{"name": "Alice B", "role": "manager"}); err != nil {
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

func TestFileStoreUpdateMergesPatch(t *testing.T) {
	s := newTestFileStore(t, "json")

	id, err := s.Insert("tasks", map[string]any{
		"title":  "Keep me",
		"status": "pending",
		"logs":   []any{},
	})
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
	if docs[0].Fields["status"] != "in-progress" {
		t.Errorf("status = %v, want in-progress", docs[0].Fields["status"])
	}
	if docs[0].Fields["title"] != "Keep me" {
		t.Errorf("patch touched an unnamed field: title = %v", docs[0].Fields["title"])
	}
}

func TestFileStoreUpdateUnknownID(t *testing.T) {
	s := newTestFileStore(t, "json")

	err := s.Update("tasks", "missing", map[string]any{"status": "completed"})
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestFileStoreDelete(t *testing.T) {
	s := newTestFileStore(t, "json")

	id, err := s.Insert("tasks", map[string]any{"title": "Doomed"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Delete("tasks", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("tasks", id); err == nil {
		t.Fatal("deleting twice must fail with not-found")
	}

	docs, err := s.QueryEquals("tasks", "", nil, 0)
	if err != nil {
		t.Fatalf("QueryEquals failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty collection, got %d documents", len(docs))
	}
}

func TestFileStoreSubscribeInitialSnapshot(t *testing.T) {
	s := newTestFileStore(t, "json")

	if _, err := s.Insert("tasks", map[string]any{"title": "Existing"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	sub, err := s.Subscribe("tasks")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	initial := receiveSnapshot(t, sub)
	if len(initial) != 1 {
		t.Fatalf("initial snapshot has %d documents, want 1", len(initial))
	}
}

func TestFileStoreSubscribeDeliversUpdates(t *testing.T) {
	s := newTestFileStore(t, "json")

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

	if err := s.Delete("tasks", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	final := receiveSnapshot(t, sub)
	if len(final) != 0 {
		t.Fatalf("snapshot after delete has %d documents, want 0", len(final))
	}
}

func TestFileStoreSubscribeCoalesces(t *testing.T) {
	s := newTestFileStore(t, "json")

	sub, err := s.Subscribe("tasks")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()
	receiveSnapshot(t, sub)

	// Write a burst without draining; the consumer must end up observing
	// the latest state, not a backlog of intermediates.
	for i := 0; i < 10; i++ {
		if _, err := s.Insert("tasks", map[string]any{"n": i}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case snapshot := <-sub.C():
			if len(snapshot) == 10 {
				return
			}
		case <-deadline:
			t.Fatal("never observed the final snapshot")
		}
	}
}

func TestFileStoreSubscriptionCloseStopsDelivery(t *testing.T) {
	s := newTestFileStore(t, "json")

	sub, err := s.Subscribe("tasks")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	receiveSnapshot(t, sub)
	sub.Close()

	if _, err := s.Insert("tasks", map[string]any{"title": "After close"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// The channel must be closed; a receive reports !ok rather than
	// blocking or delivering the write.
	select {
	case _, ok := <-sub.C():
		if ok {
			// A snapshot buffered before Close is acceptable; the channel
			// must still be closed behind it.
			if _, ok := <-sub.C(); ok {
				t.Fatal("subscription kept delivering after Close")
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("closed subscription channel still blocks")
	}
}

func TestFileStoreExternalWriterUpdate(t *testing.T) {
	dir := t.TempDir()
	s := NewFileDocumentStore()
	err := s.Initialize(map[string]string{
		"dataDir":        dir,
		"dataFileFormat": "json",
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	// A prior local write leaves a data file and checksum sidecar behind;
	// the stale sidecar is what trips the reload mid-sequence below.
	if _, err := s.Insert("tasks", map[string]any{"title": "Local"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	sub, err := s.Subscribe("tasks")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()
	receiveSnapshot(t, sub)

	// Replay another process's save sequence against the shared directory:
	// data file renamed into place first, checksum sidecar renamed after a
	// pause. The reload fired between the two renames sees a stale checksum
	// and must not cost subscribers the update.
	marshaled, err := json.MarshalIndent(collectionFile{
		Documents: map[string]map[string]any{
			"ext-1": {"title": "From another process"},
		},
		Count: 1,
	}, "", "  ")
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	path := filepath.Join(dir, "tasks.json")
	checksumPath := path + checksumSuffix
	if err := os.WriteFile(path+".ext", marshaled, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(checksumPath+".ext", []byte(calculateChecksum(marshaled)), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.Rename(path+".ext", path); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if err := os.Rename(checksumPath+".ext", checksumPath); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case snapshot := <-sub.C():
			if len(snapshot) == 1 && snapshot[0].ID == "ext-1" {
				return
			}
		case <-deadline:
			t.Fatal("external update never reached the subscriber")
		}
	}
}

func TestFileStoreFormatsRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			s := newTestFileStore(t, format)

			id, err := s.Insert("tasks", map[string]any{
				"title":    "Cross-format",
				"count":    float64(3),
				"nested":   map[string]any{"k": "v"},
				"assigned": []any{"user_a"},
			})
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}

			docs, err := s.QueryEquals("tasks", "title", "Cross-format", 0)
			if err != nil {
				t.Fatalf("QueryEquals failed: %v", err)
			}
			if len(docs) != 1 || docs[0].ID != id {
				t.Fatalf("round trip lost the document: %+v", docs)
			}
			if docs[0].Fields["count"] != float64(3) {
				t.Errorf("count = %#v, want float64(3) after normalization", docs[0].Fields["count"])
			}
		})
	}
}
