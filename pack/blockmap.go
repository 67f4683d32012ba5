package pack

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agashlin/msix-packaging/crypto"
	"github.com/agashlin/msix-packaging/internal/xmlwriter"
)

// BlockSize is the uncompressed slice size each block map hash covers.
const BlockSize = 64 * 1024

var (
	// ErrBlockMapNotClosed indicates the block map document did not reach
	// its terminal state when Close was called.
	ErrBlockMapNotClosed = errors.New("pack: block map did not close correctly")
	// ErrNoOpenFile indicates AddBlock or CloseFile was called with no
	// File element in progress.
	ErrNoOpenFile = errors.New("pack: no file open in block map")
	// ErrFileStillOpen indicates AddFile or Close was called while a
	// previous File element was never closed.
	ErrFileStillOpen = errors.New("pack: previous block map file not closed")
)

const (
	blockMapElement   = "BlockMap"
	blockMapNamespace = "http://schemas.microsoft.com/appx/2010/blockmap"
	hashMethodAttr    = "HashMethod"
	sha256Method      = "http://www.w3.org/2001/04/xmlenc#sha256"

	fileElement  = "File"
	nameAttr     = "Name"
	sizeAttr     = "Size"
	lfhSizeAttr  = "LfhSize"
	blockElement = "Block"
	hashAttr     = "Hash"
)

// BlockMapWriter builds the AppxBlockMap.xml part: one File element per
// payload part, one Block element per 64KiB slice of its uncompressed
// contents. Like the content types writer it is single-owner state with
// a one-shot Close.
type BlockMapWriter struct {
	xml      *xmlwriter.Writer
	fileOpen bool
}

// NewBlockMapWriter opens a fresh block map document.
func NewBlockMapWriter() *BlockMapWriter {
	xml := xmlwriter.NewWriter(blockMapElement)
	xml.AddAttribute(xmlnsAttribute, blockMapNamespace)
	xml.AddAttribute(hashMethodAttr, sha256Method)
	return &BlockMapWriter{xml: xml}
}

// AddFile starts the File element for one payload part. name is the
// part's package path; separators are stored backslashed as the block
// map schema requires. size is the uncompressed part size and lfhSize
// the size of the part's ZIP local file header.
func (w *BlockMapWriter) AddFile(name string, size, lfhSize uint64) error {
	if w.fileOpen {
		return ErrFileStillOpen
	}
	w.xml.StartElement(fileElement)
	w.xml.AddAttribute(nameAttr, strings.ReplaceAll(name, "/", `\`))
	w.xml.AddAttribute(sizeAttr, strconv.FormatUint(size, 10))
	w.xml.AddAttribute(lfhSizeAttr, strconv.FormatUint(lfhSize, 10))
	w.fileOpen = true
	return nil
}

// AddBlock appends one Block element for a 64KiB slice. hash is the
// SHA-256 digest of the uncompressed slice; compressedSize is the size
// of the slice after compression, or zero when the part is stored
// uncompressed (the Size attribute is then omitted).
func (w *BlockMapWriter) AddBlock(hash []byte, compressedSize uint64) error {
	if !w.fileOpen {
		return ErrNoOpenFile
	}
	w.xml.StartElement(blockElement)
	w.xml.AddAttribute(hashAttr, crypto.Base64(hash))
	if compressedSize > 0 {
		w.xml.AddAttribute(sizeAttr, strconv.FormatUint(compressedSize, 10))
	}
	return w.xml.CloseElement()
}

// CloseFile ends the current File element.
func (w *BlockMapWriter) CloseFile() error {
	if !w.fileOpen {
		return ErrNoOpenFile
	}
	w.fileOpen = false
	return w.xml.CloseElement()
}

// Close finalizes the BlockMap root.
func (w *BlockMapWriter) Close() error {
	if w.fileOpen {
		return ErrFileStillOpen
	}
	if err := w.xml.CloseElement(); err != nil {
		return fmt.Errorf("pack: close block map: %w", err)
	}
	if w.xml.State() != xmlwriter.StateFinish {
		return ErrBlockMapNotClosed
	}
	return nil
}

// Bytes returns the serialized block map. Valid after Close.
func (w *BlockMapWriter) Bytes() []byte {
	return w.xml.Bytes()
}
