package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"devicescanner/internal/domain"
)

// JSONCodec encodes identities as a JSON array of strings
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Marshal returns the JSON array for ids; an empty list encodes as []
func (c *JSONCodec) Marshal(ids []domain.Identity) ([]byte, error) {
	names := domain.IdentityStrings(ids)
	data, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// Encode writes the JSON array for ids
func (c *JSONCodec) Encode(w io.Writer, ids []domain.Identity) error {
	data, err := c.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a JSON array of identity strings
func (c *JSONCodec) Decode(r io.Reader) ([]domain.Identity, error) {
	var names []string
	if err := json.NewDecoder(r).Decode(&names); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	ids := make([]domain.Identity, len(names))
	for i, n := range names {
		ids[i] = domain.Identity(n)
	}
	return ids, nil
}
