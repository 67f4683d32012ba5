package container

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
)

// Reader exposes the parts of an existing package.
type Reader struct {
	zr     *zip.Reader
	closer io.Closer
	parts  map[string]*zip.File
}

// OpenReader opens the package at path.
func OpenReader(path string) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("container: open package: %w", err)
	}
	r := newReader(&rc.Reader)
	r.closer = rc
	return r, nil
}

// NewReader reads a package from an in-memory or seekable source.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("container: read package: %w", err)
	}
	return newReader(zr), nil
}

func newReader(zr *zip.Reader) *Reader {
	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}
	return &Reader{zr: zr, parts: parts}
}

// Parts returns all part names in sorted order.
func (r *Reader) Parts() []string {
	names := make([]string, 0, len(r.parts))
	for name := range r.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPart reports whether the named part exists.
func (r *Reader) HasPart(name string) bool {
	_, ok := r.parts[name]
	return ok
}

// Part opens the named part for reading its uncompressed contents.
func (r *Reader) Part(name string) (io.ReadCloser, error) {
	f, ok := r.parts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("container: open part %s: %w", name, err)
	}
	return rc, nil
}

// PartBytes reads the named part fully.
func (r *Reader) PartBytes(name string) ([]byte, error) {
	rc, err := r.Part(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("container: read part %s: %w", name, err)
	}
	return data, nil
}

// Close releases the underlying file when the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
