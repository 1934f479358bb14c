package storage

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/poiesic/transcriptdb/core"
)

// recordWire is the JSON form of a record.
type recordWire struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MarshalRecord serializes a Record to JSON bytes.
func MarshalRecord(record *core.Record) ([]byte, error) {
	data, err := json.Marshal(recordWire{
		ID:       record.ID,
		Values:   record.Values,
		Metadata: record.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalRecord deserializes a Record from JSON bytes.
// Integral numeric metadata values are restored as int.
func UnmarshalRecord(data []byte) (*core.Record, error) {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	if wire.ID == "" {
		return nil, fmt.Errorf("%w: record has no id", ErrSerializationFailed)
	}
	return &core.Record{
		ID:       wire.ID,
		Values:   wire.Values,
		Metadata: NormalizeMetadata(wire.Metadata),
	}, nil
}

// NormalizeMetadata converts integral float64 values (as produced by JSON
// decoding) back to int, in place, and returns the map.
func NormalizeMetadata(metadata map[string]any) map[string]any {
	for k, v := range metadata {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			metadata[k] = int(f)
		}
	}
	return metadata
}

// CloneRecord returns a deep copy of record.
func CloneRecord(record *core.Record) *core.Record {
	clone := &core.Record{
		ID:     record.ID,
		Values: append([]float32(nil), record.Values...),
	}
	if record.Metadata != nil {
		clone.Metadata = make(map[string]any, len(record.Metadata))
		for k, v := range record.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}
