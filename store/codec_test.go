package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"todomvc/model"
)

func TestDecodeAcceptsAbsentAndNullPayloads(t *testing.T) {
	for _, raw := range []string{"", "   \n", "null", "[]"} {
		items, err := Decode([]byte(raw))
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", raw, err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("Decode(%q) = %+v, want empty slice", raw, items)
		}
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"syntax", `[{"id":"1"`},
		{"object instead of array", `{"id":"1","content":"x","complete":false}`},
		{"missing id", `[{"content":"x","complete":false}]`},
		{"empty id", `[{"id":"","content":"x","complete":false}]`},
		{"complete as string", `[{"id":"1","content":"x","complete":"yes"}]`},
		{"trailing data", `[] []`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.raw)); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestDecodeOriginalLayout(t *testing.T) {
	raw := `[{"complete":false,"id":"1700000000000","content":"Buy milk","editing":true},` +
		`{"complete":true,"id":"1700000000001","content":"Walk dog","editing":false}]`

	got, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []model.TodoItem{
		{ID: "1700000000000", Content: "Buy milk", Editing: true},
		{ID: "1700000000001", Content: "Walk dog", Complete: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeKeepsOrderAndTrailingNewline(t *testing.T) {
	items := []model.TodoItem{
		{ID: "b", Content: "second"},
		{ID: "a", Content: "first", Complete: true},
	}
	data, err := Encode(items)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("expected trailing newline")
	}
	if strings.Index(string(data), `"b"`) > strings.Index(string(data), `"a"`) {
		t.Fatalf("expected insertion order to be preserved:\n%s", data)
	}

	empty, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode nil failed: %v", err)
	}
	if strings.TrimSpace(string(empty)) != "[]" {
		t.Fatalf("expected nil to encode as [], got %s", empty)
	}
}

func TestMemoryAdapterRoundTrip(t *testing.T) {
	mem := NewMemoryAdapter(nil)
	items, err := mem.Load()
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty initial load, got %+v err=%v", items, err)
	}

	want := sampleItems("mem")
	if err := mem.Save(want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := mem.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	if mem.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", mem.Saves())
	}

	mem.SaveErr = errors.New("quota exceeded")
	if err := mem.Save(nil); err == nil {
		t.Fatalf("expected injected save error")
	}
	if mem.Saves() != 1 {
		t.Fatalf("failed save must not count")
	}
}
