// Package codec encodes presence snapshots for the persistence targets.
package codec

import (
	"io"

	"devicescanner/internal/domain"
)

// Encoder writes a list of identities in one format
type Encoder interface {
	Encode(w io.Writer, ids []domain.Identity) error
	Format() string
}

// Decoder reads back a list of identities written by the matching Encoder
type Decoder interface {
	Decode(r io.Reader) ([]domain.Identity, error)
	Format() string
}
