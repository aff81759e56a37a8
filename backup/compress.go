package backup

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression is picked from file extension
type Compression string

const (
	None   Compression = ""
	Zstd   Compression = "zstd"
	Brotli Compression = "brotli"
	Gzip   Compression = "gzip"
)

// CompressionForPath returns compression implied by the extension of path
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd
	case ".br":
		return Brotli
	case ".gz":
		return Gzip
	}
	return None
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// newCompressor wraps w. Close() flushes compressed data but doesn't close w.
func newCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case Brotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}
	return nopWriteCloser{w}, nil
}

// implement io.ReadCloser over os.File wrapped with io.Reader.
// io.Closer goes to os.File, io.Reader goes to wrapping reader
type readerWrappedFile struct {
	f       *os.File
	r       io.Reader
	onClose func()
}

func (rc *readerWrappedFile) Close() error {
	if rc.onClose != nil {
		rc.onClose()
	}
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

// openMaybeCompressed opens a file that might be compressed
// with zstd, brotli or gzip, based on file extension
func openMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch CompressionForPath(path) {
	case Zstd:
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r, onClose: r.Close}, nil
	case Brotli:
		return &readerWrappedFile{f: f, r: brotli.NewReader(f)}, nil
	case Gzip:
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r}, nil
	}
	return f, nil
}
