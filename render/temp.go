package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxTempNameLen bounds the suggested-name suffix of a temp file
const maxTempNameLen = 64

// TempStore materializes image payloads as short-lived files
type TempStore struct {
	dir string
}

// NewTempStore creates a store writing into dir ("" = the OS temp dir)
func NewTempStore(dir string) *TempStore {
	return &TempStore{dir: dir}
}

// With copies src into a uniquely named file derived from name, calls fn
// with its path and removes the file when fn returns, whatever the outcome.
func (s *TempStore) With(name string, src io.Reader, fn func(path string) error) error {
	f, err := os.CreateTemp(s.dir, "transcribe-*-"+sanitizeName(name))
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrImageIO, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("%w: write temp file: %w", ErrImageIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrImageIO, err)
	}

	return fn(path)
}

// sanitizeName keeps the base name of a suggested image name, replacing
// anything that is not safe in a file name.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "image"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if len(out) > maxTempNameLen {
		out = out[len(out)-maxTempNameLen:]
	}
	return out
}
