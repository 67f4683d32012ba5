package container

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	// ErrNoEndOfCentralDir indicates no end-of-central-directory record
	// was found; the bytes are not a ZIP archive.
	ErrNoEndOfCentralDir = errors.New("container: end of central directory not found")
	// ErrZip64Unsupported indicates the archive needs ZIP64 central
	// directory offsets, which the digest splitter does not handle.
	ErrZip64Unsupported = errors.New("container: zip64 archives not supported")
)

var eocdSignature = []byte{0x50, 0x4b, 0x05, 0x06}

const (
	eocdMinLen       = 22
	eocdCommentMax   = 0xFFFF
	eocdCDOffsetPos  = 16
	zip64OffsetValue = 0xFFFFFFFF
)

// splitImage splits a serialized package into its local file records
// and its central directory (including the end record). These are the
// two ZIP-level regions the package signature digests separately.
func splitImage(img []byte) (records, centralDir []byte, err error) {
	// EOCD is at the very end, possibly followed by a comment.
	scanFrom := 0
	if len(img) > eocdMinLen+eocdCommentMax {
		scanFrom = len(img) - eocdMinLen - eocdCommentMax
	}
	idx := bytes.LastIndex(img[scanFrom:], eocdSignature)
	if idx < 0 {
		return nil, nil, ErrNoEndOfCentralDir
	}
	eocd := scanFrom + idx
	if len(img)-eocd < eocdMinLen {
		return nil, nil, ErrNoEndOfCentralDir
	}

	cdOffset := binary.LittleEndian.Uint32(img[eocd+eocdCDOffsetPos:])
	if cdOffset == zip64OffsetValue {
		return nil, nil, ErrZip64Unsupported
	}
	if int(cdOffset) > eocd {
		return nil, nil, ErrNoEndOfCentralDir
	}
	return img[:cdOffset], img[cdOffset:], nil
}
