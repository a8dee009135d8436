package model

import (
	"encoding/json"
	"testing"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"All", FilterAll},
		{"Active", FilterActive},
		{"Completed", FilterCompleted},
		{"completed", FilterCompleted},
		{" active ", FilterActive},
		{"", FilterAll},
		{"done", FilterAll},
		{"Completedd", FilterAll},
	}
	for _, tt := range tests {
		if got := ParseFilter(tt.in); got != tt.want {
			t.Fatalf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterNextCycles(t *testing.T) {
	f := FilterAll
	seen := []Filter{f}
	for i := 0; i < 3; i++ {
		f = f.Next()
		seen = append(seen, f)
	}
	want := []Filter{FilterAll, FilterActive, FilterCompleted, FilterAll}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("unexpected cycle %v", seen)
		}
	}
}

func TestFilterMatches(t *testing.T) {
	if !FilterAll.Matches(true) || !FilterAll.Matches(false) {
		t.Fatalf("All must match everything")
	}
	if !FilterActive.Matches(false) || FilterActive.Matches(true) {
		t.Fatalf("Active must match only incomplete items")
	}
	if !FilterCompleted.Matches(true) || FilterCompleted.Matches(false) {
		t.Fatalf("Completed must match only complete items")
	}
}

func TestTodoItemJSONKeys(t *testing.T) {
	data, err := json.Marshal(TodoItem{ID: "1", Content: "Buy milk", Complete: true})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"id":"1","content":"Buy milk","complete":true,"editing":false}`
	if string(data) != want {
		t.Fatalf("unexpected payload\nwant=%s\ngot=%s", want, data)
	}
}
