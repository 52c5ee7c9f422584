package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Encode converts a typed record into the schemaless field map stored in a
// collection. Values round-trip through JSON so that what a subscriber sees
// from memory matches byte-for-byte what a later reload from disk yields.
func Encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return fields, nil
}

// Decode converts a document's field map back into a typed record.
func Decode(doc Document, v any) error {
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// DecodeAll converts a snapshot into typed records, preserving order.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// cloneValue deep-copies a JSON-shaped value (maps, slices, scalars).
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return val
	}
}

func cloneFields(fields map[string]any) map[string]any {
	return cloneValue(fields).(map[string]any)
}

// snapshotOf builds an id-ordered snapshot from a collection's record map.
// Field maps are cloned so subscribers cannot mutate store state.
func snapshotOf(records map[string]map[string]any) []Document {
	docs := make([]Document, 0, len(records))
	for id, fields := range records {
		docs = append(docs, Document{ID: id, Fields: cloneFields(fields)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}
