package store

// Document is one schemaless record of a named collection, with its store
// key carried alongside the field map rather than inside it.
type Document struct {
	ID     string
	Fields map[string]any
}

// DocumentStore defines the minimal document-collection contract the core
// consumes: live full-collection snapshots plus five mutation/query
// primitives. Anything richer (server-side filtering, partial snapshots,
// transactions) is deliberately not part of the contract so that
// authorization and aggregation stay client-side, pure and testable.
type DocumentStore interface {
	// Initialize configures the store with backend-specific parameters such
	// as data directory and serialization format. It must be called before
	// any other operation.
	Initialize(config map[string]string) error

	// Subscribe returns a live subscription to the named collection. The
	// current snapshot is delivered immediately; every subsequent
	// insert/update/delete delivers a fresh full-collection snapshot.
	// Delivery coalesces: a slow consumer observes the latest snapshot, not
	// a backlog of stale ones. Closing the subscription stops delivery but
	// does not cancel writes already in flight.
	Subscribe(collection string) (*Subscription, error)

	// Insert adds a record with a store-generated id and returns that id.
	Insert(collection string, fields map[string]any) (string, error)

	// SetAtKey upserts a record under a caller-chosen key. Used for
	// deterministic-id writes, which makes the write itself idempotent.
	SetAtKey(collection, key string, fields map[string]any) error

	// Update merge-patches an existing record: fields named in patch are
	// replaced, everything else is untouched. It fails with a not_found
	// error if the id is unknown.
	Update(collection, id string, patch map[string]any) error

	// Delete removes a record. It fails with a not_found error if the id is
	// unknown.
	Delete(collection, id string) error

	// QueryEquals returns records whose field equals value, up to limit
	// (0 = no limit). An empty field matches every record; that form backs
	// the one-shot empty-roster probe. Results are ordered by id.
	QueryEquals(collection, field string, value any, limit int) ([]Document, error)

	// Close releases watchers, locks and open subscriptions.
	Close() error
}
