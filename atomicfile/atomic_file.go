package atomicfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Some references:
// - https://www.slideshare.net/nan1nan1/eat-my-data
// - https://lwn.net/Articles/457667/

var (
	// ErrCancelled is returned by calls subsequent to RemoveIfNotClosed()
	ErrCancelled = errors.New("cancelled")

	// ensure we implement desired interface
	_ io.WriteCloser = &File{}

	// rename is a variable so that tests can simulate
	// a platform without atomic rename
	rename = os.Rename
)

// File writes to a temporary file and replaces destination file on Close()
type File struct {
	dstPath string
	dir     string
	tmpFile *os.File
	err     error

	tmpPath string

	// true if the last Close() had to fall back to non-atomic copy
	didCopy bool
}

// New creates new File. The directory of path must exist.
func New(path string) (*File, error) {
	dir, fName := filepath.Split(path)
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if fName == "" {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}

	tmpFile, err := os.CreateTemp(dir, fName+".tmp*")
	if err != nil {
		return nil, err
	}
	// CreateTemp uses 0600, keep permissions of the file we replace
	perm := os.FileMode(0644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}
	_ = tmpFile.Chmod(perm)

	return &File{
		dstPath: path,
		dir:     dir,
		tmpFile: tmpFile,
		tmpPath: tmpFile.Name(),
	}, nil
}

func (f *File) handleError(err error) error {
	if err == nil {
		return nil
	}
	// remember the first error
	if f.err == nil {
		f.err = err
	}
	// cleanup i.e. delete temporary file
	_ = f.Close()
	return err
}

// Write writes data to a temporary file
func (f *File) Write(d []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.Write(d)
	return n, f.handleError(err)
}

func (f *File) WriteString(s string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n, err := f.tmpFile.WriteString(s)
	return n, f.handleError(err)
}

// DidFallback returns true if destination was replaced by copying
// instead of renaming
func (f *File) DidFallback() bool {
	return f.didCopy
}

func (f *File) alreadyClosed() bool {
	return f.tmpFile == nil
}

// RemoveIfNotClosed removes the temp file if we didn't Close
// the file yet. Destination file will not be touched.
// Use it with defer to clean up on early returns and panics.
// RemoveIfNotClosed after Close is a no-op.
func (f *File) RemoveIfNotClosed() {
	if f == nil || f.alreadyClosed() {
		return
	}
	f.err = ErrCancelled
	_ = f.Close()
}

// renameUnsupported returns true if err means the platform
// can't rename over the destination, as opposed to a real failure
func renameUnsupported(err error) bool {
	return errors.Is(err, errors.ErrUnsupported) ||
		errors.Is(err, syscall.EXDEV) ||
		errors.Is(err, syscall.ENOTSUP)
}

// copyOver overwrites dst with content of src. Not atomic.
func copyOver(dst string, src string) error {
	fin, err := os.Open(src)
	if err != nil {
		return err
	}
	defer fin.Close()
	fout, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = io.Copy(fout, fin)
	if err == nil {
		err = fout.Sync()
	}
	err2 := fout.Close()
	if err != nil {
		return err
	}
	return err2
}

func (f *File) replace() error {
	err := rename(f.tmpPath, f.dstPath)
	if err == nil || !renameUnsupported(err) {
		return err
	}
	f.didCopy = true
	return copyOver(f.dstPath, f.tmpPath)
}

// Close closes the temporary file and replaces destination with it.
// Can be called multiple times, returns the first error.
func (f *File) Close() error {
	if f.alreadyClosed() {
		return f.err
	}
	tmpFile := f.tmpFile
	f.tmpFile = nil

	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errSync := tmpFile.Sync()
	errClose := tmpFile.Close()

	// temporary file is gone after successful rename.
	// in every other case we delete it
	defer func() {
		_ = os.Remove(f.tmpPath)
	}()

	// if there was an error during write, return that error
	if f.err != nil {
		return f.err
	}

	err := errSync
	if err == nil {
		err = errClose
	}
	if err == nil {
		err = f.replace()
		// sync directory after rename to survive crashes.
		// errors are ignored, this is nice to have
		fdir, _ := os.Open(f.dir)
		if fdir != nil {
			_ = fdir.Sync()
			_ = fdir.Close()
		}
	}
	f.err = err
	return f.err
}
