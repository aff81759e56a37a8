// Package backup makes compressed snapshots of the species file
// and restores them, locally or via an S3-compatible bucket.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kjk/asistentepa/atomicfile"
	"github.com/kjk/asistentepa/species"
)

// Snapshot copies the species file of s to dst, compressed
// according to extension of dst (.zst, .br, .gz or none)
func Snapshot(s *species.Store, dst string) error {
	if err := s.EnsureFile(); err != nil {
		return err
	}
	fin, err := os.Open(s.Path())
	if err != nil {
		return err
	}
	defer fin.Close()

	if err = os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	f, err := atomicfile.New(dst)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()

	w, err := newCompressor(f, CompressionForPath(dst))
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, fin); err != nil {
		return fmt.Errorf("snapshot of '%s' failed: %w", s.Path(), err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("snapshot of '%s' failed: %w", s.Path(), err)
	}
	return f.Close()
}

// Restore replaces content of s with species from snapshot src.
// The snapshot is fully decoded and validated before s is changed.
// Returns number of restored species.
func Restore(s *species.Store, src string) (int, error) {
	r, err := openMaybeCompressed(src)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	records, err := species.Decode(r, s.DecodeOptions())
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot '%s': %w", src, err)
	}
	if err = s.ReplaceAll(records); err != nil {
		return 0, fmt.Errorf("invalid snapshot '%s': %w", src, err)
	}
	return len(records), nil
}
