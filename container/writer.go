// Package container reads and writes the ZIP envelope of a package:
// payload parts, the block map, the content types manifest, and the
// signature part. It glues the pack writers to archive/zip and owns the
// digest regions the signature covers.
package container

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/agashlin/msix-packaging/crypto"
	"github.com/agashlin/msix-packaging/pack"
)

var (
	// ErrFinalized indicates a part was added after Finalize.
	ErrFinalized = errors.New("container: package already finalized")
	// ErrPartNotFound indicates the requested part is not in the package.
	ErrPartNotFound = errors.New("container: part not found")
)

// zipLocalHeaderLen is the fixed portion of a ZIP local file header;
// the part name follows it directly (no extra fields are written).
const zipLocalHeaderLen = 30

// Writer assembles a new package. Parts are added one at a time; the
// content types manifest and block map accumulate alongside and are
// written out by Finalize. Single-owner, not safe for concurrent use.
type Writer struct {
	zw        *zip.Writer
	ct        *pack.ContentTypeWriter
	bm        *pack.BlockMapWriter
	finalized bool
}

// NewWriter starts a package written to w. Deflate entries go through
// the klauspost compressor at best compression, flushed per block so
// block map compressed sizes line up with the stream.
func NewWriter(w io.Writer) *Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	return &Writer{
		zw: zw,
		ct: pack.NewContentTypeWriter(),
		bm: pack.NewBlockMapWriter(),
	}
}

// AddPart writes one payload part, records its content type, and adds
// its block hashes to the block map. compress selects Deflate over
// Store; forceOverride is passed through to the content types decision.
func (w *Writer) AddPart(name, contentType string, data []byte, compress, forceOverride bool) error {
	if w.finalized {
		return ErrFinalized
	}
	if err := w.ct.AddContentType(name, contentType, forceOverride); err != nil {
		return err
	}
	lfhSize := uint64(zipLocalHeaderLen + len(name))
	if err := w.bm.AddFile(name, uint64(len(data)), lfhSize); err != nil {
		return err
	}

	blocks := sliceBlocks(data)
	if compress && len(data) > 0 {
		if err := w.writeDeflatePart(name, data, blocks); err != nil {
			return err
		}
	} else {
		if err := w.writeStoredPart(name, data, blocks); err != nil {
			return err
		}
	}
	return w.bm.CloseFile()
}

// writeStoredPart writes data uncompressed. Block entries carry no
// compressed size.
func (w *Writer) writeStoredPart(name string, data []byte, blocks [][]byte) error {
	fw, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("container: create part %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("container: write part %s: %w", name, err)
	}
	for _, b := range blocks {
		if err := w.bm.AddBlock(crypto.ComputeHash(b), 0); err != nil {
			return err
		}
	}
	return nil
}

// writeDeflatePart compresses block by block through one deflate
// stream, flushing at each block boundary so every block's compressed
// size is observable. The entry is emitted raw since the compressed
// bytes already exist.
func (w *Writer) writeDeflatePart(name string, data []byte, blocks [][]byte) error {
	var compressed bytes.Buffer
	fw, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		return fmt.Errorf("container: init compressor: %w", err)
	}

	sizes := make([]uint64, len(blocks))
	for i, b := range blocks {
		before := compressed.Len()
		if _, err := fw.Write(b); err != nil {
			return fmt.Errorf("container: compress part %s: %w", name, err)
		}
		if err := fw.Flush(); err != nil {
			return fmt.Errorf("container: compress part %s: %w", name, err)
		}
		sizes[i] = uint64(compressed.Len() - before)
	}
	before := compressed.Len()
	if err := fw.Close(); err != nil {
		return fmt.Errorf("container: compress part %s: %w", name, err)
	}
	// Stream-end bytes belong to the final block.
	sizes[len(sizes)-1] += uint64(compressed.Len() - before)

	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
	hdr.UncompressedSize64 = uint64(len(data))
	hdr.CompressedSize64 = uint64(compressed.Len())
	hdr.CRC32 = crc32.ChecksumIEEE(data)
	rw, err := w.zw.CreateRaw(hdr)
	if err != nil {
		return fmt.Errorf("container: create part %s: %w", name, err)
	}
	if _, err := rw.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("container: write part %s: %w", name, err)
	}

	for i, b := range blocks {
		if err := w.bm.AddBlock(crypto.ComputeHash(b), sizes[i]); err != nil {
			return err
		}
	}
	return nil
}

// Finalize closes the block map and content types manifest, writes both
// as parts, and closes the archive. The writer is unusable afterwards.
func (w *Writer) Finalize() error {
	if w.finalized {
		return ErrFinalized
	}
	w.finalized = true

	if err := w.bm.Close(); err != nil {
		return err
	}
	if err := w.ct.AddContentType(pack.BlockMapFile, pack.BlockMapContentType, true); err != nil {
		return err
	}
	if err := w.writeMetaPart(pack.BlockMapFile, w.bm.Bytes()); err != nil {
		return err
	}

	if err := w.ct.Close(); err != nil {
		return err
	}
	if err := w.writeMetaPart(pack.ContentTypesFile, w.ct.Bytes()); err != nil {
		return err
	}

	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("container: close archive: %w", err)
	}
	return nil
}

// writeMetaPart writes a metadata part (block map, content types)
// stored uncompressed and excluded from the block map.
func (w *Writer) writeMetaPart(name string, data []byte) error {
	fw, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("container: create part %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("container: write part %s: %w", name, err)
	}
	return nil
}

// sliceBlocks splits data into block map sized slices. The slices alias
// data.
func sliceBlocks(data []byte) [][]byte {
	var blocks [][]byte
	for len(data) > pack.BlockSize {
		blocks = append(blocks, data[:pack.BlockSize])
		data = data[pack.BlockSize:]
	}
	if len(data) > 0 {
		blocks = append(blocks, data)
	}
	return blocks
}
