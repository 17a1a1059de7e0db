package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"devicescanner/internal/domain"
)

// LinesCodec encodes identities one per line with a trailing newline
type LinesCodec struct{}

// NewLinesCodec creates a new newline-delimited codec
func NewLinesCodec() *LinesCodec {
	return &LinesCodec{}
}

// Format returns the codec format identifier
func (c *LinesCodec) Format() string {
	return "lines"
}

// Encode writes ids joined by newlines plus a final newline. An empty list
// is written as a single newline.
func (c *LinesCodec) Encode(w io.Writer, ids []domain.Identity) error {
	for _, id := range ids {
		if strings.ContainsAny(string(id), "\r\n") {
			return fmt.Errorf("identity %q contains a line break", id)
		}
	}

	out := strings.Join(domain.IdentityStrings(ids), "\n") + "\n"
	_, err := io.WriteString(w, out)
	return err
}

// Decode reads one identity per line, skipping blank lines
func (c *LinesCodec) Decode(r io.Reader) ([]domain.Identity, error) {
	var ids []domain.Identity
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		ids = append(ids, domain.Identity(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return ids, nil
}
