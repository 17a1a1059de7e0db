package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"devicescanner/internal/codec"
	"devicescanner/internal/domain"
)

// FileSink overwrites a file with one present identity per line
type FileSink struct {
	path  string
	codec *codec.LinesCodec
}

// NewFileSink creates a sink writing to path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, codec: codec.NewLinesCodec()}
}

// Name returns the sink identifier
func (f *FileSink) Name() string {
	return "file"
}

// Path returns the output file path
func (f *FileSink) Path() string {
	return f.path
}

// Write replaces the file contents atomically: write to a temp file in the
// same directory, then rename over the target.
func (f *FileSink) Write(ctx context.Context, snap domain.Snapshot) error {
	var buf bytes.Buffer
	if err := f.codec.Encode(&buf, sortedIdentities(snap)); err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Read returns the identities currently in the file
func (f *FileSink) Read() ([]domain.Identity, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.codec.Decode(file)
}

func sortedIdentities(snap domain.Snapshot) []domain.Identity {
	ids := snap.Identities()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
