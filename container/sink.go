package container

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a finished package image.
type Sink interface {
	WritePackage(buf []byte) error
}

// FileSink writes the package to a filesystem path atomically via a
// temp file in the same directory plus rename.
type FileSink struct {
	Path string
}

// WritePackage implements Sink.
func (s *FileSink) WritePackage(buf []byte) error {
	dir := filepath.Dir(s.Path)
	tmpFile, createErr := os.CreateTemp(dir, ".msixpack-tmp-*")
	if createErr != nil {
		return fmt.Errorf("create temp file: %w", createErr)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmpFile.Write(buf); writeErr != nil {
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	if syncErr := tmpFile.Sync(); syncErr != nil {
		return fmt.Errorf("sync temp file: %w", syncErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil // don't clean up in defer

	if renameErr := os.Rename(tmpPath, s.Path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", renameErr)
	}
	return nil
}

// MemSink captures the package image in memory. Useful for tests or
// when the image needs further processing.
type MemSink struct {
	Buf []byte
}

// WritePackage implements Sink.
func (s *MemSink) WritePackage(buf []byte) error {
	s.Buf = append(s.Buf[:0], buf...)
	return nil
}
