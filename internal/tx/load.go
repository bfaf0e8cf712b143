package tx

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML or JSON snapshot from path.
func LoadFile(path string) (*Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON snapshot. JSON is accepted because it is a
// subset of YAML.
func Parse(data []byte) (*Transaction, error) {
	var t Transaction
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if t.Action.Action == "" {
		return nil, fmt.Errorf("parse snapshot: action is required")
	}
	return &t, nil
}

// Marshal encodes the snapshot as YAML.
func Marshal(t *Transaction) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
