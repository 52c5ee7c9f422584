package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v3"

	"github.com/bryansoph/taskflow/types"
)

const (
	dataDirKey        = "dataDir"
	dataFileFormatKey = "dataFileFormat"
	defaultDataDir    = "data"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
)

// collectionFile is the on-disk envelope for one collection.
type collectionFile struct {
	Documents map[string]map[string]any `json:"documents" yaml:"documents" toml:"documents"`
	Count     int                       `json:"count" yaml:"count" toml:"count"`
}

// FileDocumentStore implements DocumentStore with one data file per
// collection. It supports JSON, YAML, and TOML formats, uses file-level
// locking for cross-process safety, and verifies a sha256 checksum sidecar
// on every load. An fsnotify watcher picks up writes made by other
// processes and republishes snapshots to live subscribers, which is what
// turns a directory of flat files into a push-based sync channel.
type FileDocumentStore struct {
	dir    string
	format string

	mu    sync.Mutex
	locks map[string]*flock.Flock
	cache map[string]map[string]map[string]any

	bc        *broadcaster
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
}

// NewFileDocumentStore creates a new instance of FileDocumentStore.
// It does not initialize the store; Initialize must be called separately.
func NewFileDocumentStore() *FileDocumentStore {
	return &FileDocumentStore{
		locks: make(map[string]*flock.Flock),
		cache: make(map[string]map[string]map[string]any),
		bc:    newBroadcaster(),
	}
}

// Initialize configures the FileDocumentStore. It expects a 'dataDir' key in
// the config map; collection files live directly under that directory. The
// optional 'dataFileFormat' key selects json (default), yaml or toml.
func (s *FileDocumentStore) Initialize(config map[string]string) error {
	if val, ok := config[dataDirKey]; ok && val != "" {
		s.dir = val
	} else {
		s.dir = defaultDataDir
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		formatLower := strings.ToLower(val)
		switch formatLower {
		case formatJSON, formatYAML, formatTOML:
			s.format = formatLower
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s. Supported formats are json, yaml, toml", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", s.dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create directory watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch data directory %s: %w", s.dir, err)
	}
	s.watcher = watcher
	s.watchDone = make(chan struct{})
	go s.watchLoop()

	return nil
}

// watchLoop reloads and republishes a collection whenever its data file is
// written by another process. Our own writes update the cache before the
// filesystem event fires, so the deep-equal check below suppresses them.
func (s *FileDocumentStore) watchLoop() {
	defer close(s.watchDone)
	ext := "." + s.format
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			// An external writer lands two renames: the data file, then its
			// checksum sidecar. Both must trigger a reload; a reload fired
			// between the two renames fails the checksum verification, and
			// only the sidecar event can recover the dropped snapshot.
			switch {
			case strings.HasSuffix(base, ext+checksumSuffix):
				base = strings.TrimSuffix(base, checksumSuffix)
			case strings.HasSuffix(base, ext):
			default:
				continue
			}
			collection := strings.TrimSuffix(base, ext)
			s.reloadAndPublish(collection)
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors are not fatal; the next local mutation still
			// reloads from disk before writing.
		}
	}
}

func (s *FileDocumentStore) reloadAndPublish(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.withCollectionLock(collection, func() (map[string]map[string]any, error) {
		return s.loadCollectionInternal(collection)
	})
	if err != nil {
		return
	}
	if reflect.DeepEqual(s.cache[collection], records) {
		return
	}
	s.cache[collection] = records
	s.bc.publish(collection, snapshotOf(records))
}

func (s *FileDocumentStore) collectionPath(collection string) string {
	return filepath.Join(s.dir, collection+"."+s.format)
}

func (s *FileDocumentStore) lockFor(collection string) *flock.Flock {
	if flk, ok := s.locks[collection]; ok {
		return flk
	}
	flk := flock.New(s.collectionPath(collection))
	s.locks[collection] = flk
	return flk
}

// withCollectionLock runs fn while holding the cross-process lock for the
// collection's data file. The caller must hold s.mu.
func (s *FileDocumentStore) withCollectionLock(collection string, fn func() (map[string]map[string]any, error)) (map[string]map[string]any, error) {
	flk := s.lockFor(collection)
	if err := flk.Lock(); err != nil {
		return nil, fmt.Errorf("could not lock collection %s: %w", collection, err)
	}
	defer func() { _ = flk.Unlock() }()
	return fn()
}

// calculateChecksum computes the SHA256 checksum of the given data.
func calculateChecksum(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// loadCollectionInternal reads a collection file, verifies its checksum, and
// unmarshals it. A missing file is an empty collection, not an error.
func (s *FileDocumentStore) loadCollectionInternal(collection string) (map[string]map[string]any, error) {
	path := s.collectionPath(collection)
	checksumPath := path + checksumSuffix

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read data file %s: %w", path, err)
	}

	if _, err := os.Stat(checksumPath); err == nil {
		expectedBytes, readErr := os.ReadFile(checksumPath)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read checksum file %s: %w - data file might be corrupt or tampered", checksumPath, readErr)
		}
		expected := strings.TrimSpace(string(expectedBytes))
		actual := calculateChecksum(data)
		if actual != expected {
			return nil, fmt.Errorf("checksum mismatch for %s - expected %s, got %s - file is corrupt or tampered", path, expected, actual)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking checksum file %s: %w", checksumPath, err)
	}
	// A data file without a checksum sidecar predates checksumming; load it
	// and let the next save create the sidecar.

	if len(data) == 0 {
		return map[string]map[string]any{}, nil
	}

	var file collectionFile
	switch s.format {
	case formatJSON:
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON from %s: %w", path, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML from %s: %w", path, err)
		}
	case formatTOML:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal TOML from %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported data format for loading: %s", s.format)
	}

	if file.Documents == nil {
		file.Documents = map[string]map[string]any{}
	}
	// YAML and TOML decode nested maps with interface values that differ
	// from JSON's; a round-trip normalizes everything to the JSON shape the
	// rest of the store assumes.
	if s.format != formatJSON {
		normalized, err := Encode(file.Documents)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize %s data from %s: %w", s.format, path, err)
		}
		docs := make(map[string]map[string]any, len(normalized))
		for id, fields := range normalized {
			inner, ok := fields.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("malformed document %s in %s", id, path)
			}
			docs[id] = inner
		}
		return docs, nil
	}
	return file.Documents, nil
}

// saveCollectionInternal writes a collection file atomically, then its
// checksum sidecar.
func (s *FileDocumentStore) saveCollectionInternal(collection string, records map[string]map[string]any) error {
	file := collectionFile{Documents: records, Count: len(records)}

	var marshaled []byte
	var err error
	switch s.format {
	case formatJSON:
		marshaled, err = json.MarshalIndent(file, "", "  ")
	case formatYAML:
		marshaled, err = yaml.Marshal(file)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encodeErr := toml.NewEncoder(buf).Encode(file); encodeErr == nil {
			marshaled = buf.Bytes()
		} else {
			err = fmt.Errorf("failed to marshal TOML: %w", encodeErr)
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s to %s: %w", collection, s.format, err)
	}

	path := s.collectionPath(collection)
	tempPath := path + ".tmp"
	checksumPath := path + checksumSuffix
	tempChecksumPath := checksumPath + ".tmp"

	defer func() { _ = os.Remove(tempPath) }()
	defer func() { _ = os.Remove(tempChecksumPath) }()

	if err := os.WriteFile(tempPath, marshaled, 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary data file %s: %w", tempPath, err)
	}
	if err := os.WriteFile(tempChecksumPath, []byte(calculateChecksum(marshaled)), 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary checksum file %s: %w", tempChecksumPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary data file %s to %s: %w", tempPath, path, err)
	}
	if err := os.Rename(tempChecksumPath, checksumPath); err != nil {
		return fmt.Errorf("CRITICAL: data file %s updated, but failed to update checksum file %s: %w - store may be inconsistent", path, checksumPath, err)
	}
	return nil
}

// mutate applies fn to the latest on-disk state of a collection under both
// the in-process mutex and the cross-process file lock, saves the result,
// and publishes the new snapshot. Reloading before every mutation is what
// gives read-modify-write its "latest known record" guarantee.
func (s *FileDocumentStore) mutate(collection string, fn func(records map[string]map[string]any) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.withCollectionLock(collection, func() (map[string]map[string]any, error) {
		records, err := s.loadCollectionInternal(collection)
		if err != nil {
			return nil, err
		}
		if err := fn(records); err != nil {
			return nil, err
		}
		if err := s.saveCollectionInternal(collection, records); err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return err
	}

	s.cache[collection] = records
	s.bc.publish(collection, snapshotOf(records))
	return nil
}

// read returns the latest on-disk state of a collection without publishing.
func (s *FileDocumentStore) read(collection string) (map[string]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.withCollectionLock(collection, func() (map[string]map[string]any, error) {
		return s.loadCollectionInternal(collection)
	})
	if err != nil {
		return nil, err
	}
	s.cache[collection] = records
	return records, nil
}

// Subscribe returns a live subscription primed with the current snapshot.
func (s *FileDocumentStore) Subscribe(collection string) (*Subscription, error) {
	records, err := s.read(collection)
	if err != nil {
		return nil, types.NewStoreError("subscribe failed", err)
	}
	return s.bc.subscribe(collection, snapshotOf(records)), nil
}

// Insert adds a record under a generated id and returns that id.
func (s *FileDocumentStore) Insert(collection string, fields map[string]any) (string, error) {
	normalized, err := Encode(fields)
	if err != nil {
		return "", types.NewStoreError("insert failed", err)
	}
	id := uuid.NewString()
	err = s.mutate(collection, func(records map[string]map[string]any) error {
		records[id] = normalized
		return nil
	})
	if err != nil {
		return "", types.NewStoreError("insert failed", err)
	}
	return id, nil
}

// SetAtKey upserts a record under a caller-chosen key.
func (s *FileDocumentStore) SetAtKey(collection, key string, fields map[string]any) error {
	normalized, err := Encode(fields)
	if err != nil {
		return types.NewStoreError("set failed", err)
	}
	err = s.mutate(collection, func(records map[string]map[string]any) error {
		records[key] = normalized
		return nil
	})
	if err != nil {
		return types.NewStoreError("set failed", err)
	}
	return nil
}

// Update merge-patches an existing record.
func (s *FileDocumentStore) Update(collection, id string, patch map[string]any) error {
	normalized, err := Encode(patch)
	if err != nil {
		return types.NewStoreError("update failed", err)
	}
	var notFound bool
	err = s.mutate(collection, func(records map[string]map[string]any) error {
		existing, ok := records[id]
		if !ok {
			notFound = true
			return fmt.Errorf("document %s not found in %s", id, collection)
		}
		for k, v := range normalized {
			existing[k] = v
		}
		return nil
	})
	if notFound {
		return types.NewNotFound("document not found", map[string]any{"collection": collection, "id": id})
	}
	if err != nil {
		return types.NewStoreError("update failed", err)
	}
	return nil
}

// Delete removes a record.
func (s *FileDocumentStore) Delete(collection, id string) error {
	var notFound bool
	err := s.mutate(collection, func(records map[string]map[string]any) error {
		if _, ok := records[id]; !ok {
			notFound = true
			return fmt.Errorf("document %s not found in %s", id, collection)
		}
		delete(records, id)
		return nil
	})
	if notFound {
		return types.NewNotFound("document not found", map[string]any{"collection": collection, "id": id})
	}
	if err != nil {
		return types.NewStoreError("delete failed", err)
	}
	return nil
}

// QueryEquals returns records whose field equals value, up to limit.
func (s *FileDocumentStore) QueryEquals(collection, field string, value any, limit int) ([]Document, error) {
	records, err := s.read(collection)
	if err != nil {
		return nil, types.NewStoreError("query failed", err)
	}
	return filterEquals(snapshotOf(records), field, value, limit)
}

// filterEquals applies the one-shot equality filter shared by both backends.
func filterEquals(docs []Document, field string, value any, limit int) ([]Document, error) {
	var want any
	if field != "" {
		normalized, err := Encode(map[string]any{"v": value})
		if err != nil {
			return nil, types.NewStoreError("query failed", err)
		}
		want = normalized["v"]
	}

	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if field != "" && !reflect.DeepEqual(doc.Fields[field], want) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close stops the watcher and closes every live subscription.
func (s *FileDocumentStore) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
		<-s.watchDone
		s.watcher = nil
	}
	s.bc.shutdown()
	return nil
}
