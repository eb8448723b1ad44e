package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON encodes a snapshot as indented JSON and writes it to w.
// Map keys are emitted in sorted order, so output for the same graph is
// byte-stable across runs.
func WriteJSON(snap *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a snapshot from r. ReadJSON does not close r and does
// not validate graph consistency - that happens in [ToStore].
func ReadJSON(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &snap, nil
}

// ExportFile writes a snapshot to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportFile(snap *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(snap, f)
}

// ImportFile reads a JSON file at path and returns the decoded snapshot.
func ImportFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// Marshal returns the snapshot as compact JSON bytes. Used by the snapshot
// stores, which persist raw bytes.
func Marshal(snap *Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// Unmarshal decodes compact JSON bytes into a snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
