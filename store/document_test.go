package store

import (
	"reflect"
	"testing"
)

func TestEncodeNormalizesValues(t *testing.T) {
	fields, err := Encode(map[string]any{
		"count": 3,
		"tags":  []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if fields["count"] != float64(3) {
		t.Errorf("count = %#v, want float64(3)", fields["count"])
	}
	if !reflect.DeepEqual(fields["tags"], []any{"a", "b"}) {
		t.Errorf("tags = %#v, want []any{a b}", fields["tags"])
	}
}

func TestSnapshotsAreIsolatedCopies(t *testing.T) {
	records := map[string]map[string]any{
		"b": {"n": float64(2)},
		"a": {"n": float64(1), "nested": map[string]any{"k": "v"}},
	}
	snapshot := snapshotOf(records)

	if len(snapshot) != 2 || snapshot[0].ID != "a" || snapshot[1].ID != "b" {
		t.Fatalf("snapshot not ordered by id: %+v", snapshot)
	}

	snapshot[0].Fields["n"] = float64(99)
	snapshot[0].Fields["nested"].(map[string]any)["k"] = "mutated"
	if records["a"]["n"] != float64(1) {
		t.Error("mutating a snapshot leaked into the store state")
	}
	if records["a"]["nested"].(map[string]any)["k"] != "v" {
		t.Error("mutating nested snapshot data leaked into the store state")
	}
}
