package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todomvc/model"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "todos"

var (
	// ErrCorrupt marks a payload that is not a valid todo snapshot.
	ErrCorrupt = errors.New("corrupt todo payload")
	// ErrNoBackup is returned by Restore when no readable backup exists.
	ErrNoBackup = errors.New("no valid backup found")
)

// Adapter persists the full todo snapshot under one storage key.
// Load returns an empty slice when nothing has been stored yet.
type Adapter interface {
	Load() ([]model.TodoItem, error)
	Save(items []model.TodoItem) error
}

const payloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": ["array", "null"],
  "items": {
    "type": "object",
    "required": ["id", "content", "complete"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "content": {"type": "string"},
      "complete": {"type": "boolean"},
      "editing": {"type": "boolean"}
    }
  }
}`

var schema = jsonschema.MustCompileString("todos.schema.json", payloadSchema)

// Encode renders items as an indented JSON array with a trailing newline.
func Encode(items []model.TodoItem) ([]byte, error) {
	if items == nil {
		items = []model.TodoItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a stored snapshot.
// Empty input and JSON null decode to no items.
func Decode(data []byte) ([]model.TodoItem, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []model.TodoItem{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after snapshot", ErrCorrupt)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var items []model.TodoItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if items == nil {
		items = []model.TodoItem{}
	}
	return items, nil
}
