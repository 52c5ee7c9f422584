package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/bryansoph/taskflow/types"
)

const (
	dataFileKey     = "dataFile"
	defaultDataFile = "taskflow.db"
)

// SQLiteDocumentStore implements DocumentStore on a single SQLite database
// using the pure-Go modernc driver. Documents are stored as JSON bodies
// keyed by (collection, key), which keeps the schemaless contract while
// gaining transactional writes. Live subscriptions are in-process only:
// without a cross-process notification channel, external writers are not
// observed until the next local operation.
type SQLiteDocumentStore struct {
	db *sql.DB
	mu sync.Mutex
	bc *broadcaster
}

// NewSQLiteDocumentStore creates a new instance of SQLiteDocumentStore.
// It does not initialize the store; Initialize must be called separately.
func NewSQLiteDocumentStore() *SQLiteDocumentStore {
	return &SQLiteDocumentStore{bc: newBroadcaster()}
}

// Initialize opens (and if needed creates) the database. It expects a
// 'dataFile' key in the config map specifying the database path.
func (s *SQLiteDocumentStore) Initialize(config map[string]string) error {
	path := config[dataFileKey]
	if path == "" {
		path = defaultDataFile
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// The modernc driver serializes writes per connection; a single
	// connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	schema := `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	doc        TEXT NOT NULL,
	PRIMARY KEY (collection, key)
);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db
	return nil
}

// loadCollection reads every record of a collection. The caller must hold s.mu.
func (s *SQLiteDocumentStore) loadCollection(collection string) (map[string]map[string]any, error) {
	rows, err := s.db.Query(`SELECT key, doc FROM documents WHERE collection = ? ORDER BY key`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]map[string]any)
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan row in %s: %w", collection, err)
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(doc), &fields); err != nil {
			return nil, fmt.Errorf("malformed document %s in %s: %w", key, collection, err)
		}
		records[key] = fields
	}
	return records, rows.Err()
}

func (s *SQLiteDocumentStore) publish(collection string) error {
	records, err := s.loadCollection(collection)
	if err != nil {
		return err
	}
	s.bc.publish(collection, snapshotOf(records))
	return nil
}

func (s *SQLiteDocumentStore) upsert(collection, key string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", key, err)
	}
	_, err = s.db.Exec(`
INSERT INTO documents (collection, key, doc) VALUES (?, ?, ?)
ON CONFLICT (collection, key) DO UPDATE SET doc = excluded.doc`,
		collection, key, string(body))
	if err != nil {
		return fmt.Errorf("failed to upsert document %s in %s: %w", key, collection, err)
	}
	return nil
}

// Subscribe returns a live subscription primed with the current snapshot.
func (s *SQLiteDocumentStore) Subscribe(collection string) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadCollection(collection)
	if err != nil {
		return nil, types.NewStoreError("subscribe failed", err)
	}
	return s.bc.subscribe(collection, snapshotOf(records)), nil
}

// Insert adds a record under a generated id and returns that id.
func (s *SQLiteDocumentStore) Insert(collection string, fields map[string]any) (string, error) {
	normalized, err := Encode(fields)
	if err != nil {
		return "", types.NewStoreError("insert failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	if err := s.upsert(collection, id, normalized); err != nil {
		return "", types.NewStoreError("insert failed", err)
	}
	if err := s.publish(collection); err != nil {
		return "", types.NewStoreError("insert failed", err)
	}
	return id, nil
}

// SetAtKey upserts a record under a caller-chosen key.
func (s *SQLiteDocumentStore) SetAtKey(collection, key string, fields map[string]any) error {
	normalized, err := Encode(fields)
	if err != nil {
		return types.NewStoreError("set failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsert(collection, key, normalized); err != nil {
		return types.NewStoreError("set failed", err)
	}
	if err := s.publish(collection); err != nil {
		return types.NewStoreError("set failed", err)
	}
	return nil
}

// Update merge-patches an existing record.
func (s *SQLiteDocumentStore) Update(collection, id string, patch map[string]any) error {
	normalized, err := Encode(patch)
	if err != nil {
		return types.NewStoreError("update failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var doc string
	row := s.db.QueryRow(`SELECT doc FROM documents WHERE collection = ? AND key = ?`, collection, id)
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return types.NewNotFound("document not found", map[string]any{"collection": collection, "id": id})
		}
		return types.NewStoreError("update failed", err)
	}

	var existing map[string]any
	if err := json.Unmarshal([]byte(doc), &existing); err != nil {
		return types.NewStoreError("update failed", err)
	}
	for k, v := range normalized {
		existing[k] = v
	}

	if err := s.upsert(collection, id, existing); err != nil {
		return types.NewStoreError("update failed", err)
	}
	if err := s.publish(collection); err != nil {
		return types.NewStoreError("update failed", err)
	}
	return nil
}

// Delete removes a record.
func (s *SQLiteDocumentStore) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM documents WHERE collection = ? AND key = ?`, collection, id)
	if err != nil {
		return types.NewStoreError("delete failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return types.NewStoreError("delete failed", err)
	}
	if affected == 0 {
		return types.NewNotFound("document not found", map[string]any{"collection": collection, "id": id})
	}
	if err := s.publish(collection); err != nil {
		return types.NewStoreError("delete failed", err)
	}
	return nil
}

// QueryEquals returns records whose field equals value, up to limit.
func (s *SQLiteDocumentStore) QueryEquals(collection, field string, value any, limit int) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadCollection(collection)
	if err != nil {
		return nil, types.NewStoreError("query failed", err)
	}
	return filterEquals(snapshotOf(records), field, value, limit)
}

// Close closes every live subscription and the database.
func (s *SQLiteDocumentStore) Close() error {
	s.bc.shutdown()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
