package container

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/agashlin/msix-packaging/pack"
	"github.com/agashlin/msix-packaging/signature"
)

// Resign adds (or refreshes) the digital signature of an existing
// package, writing the signed package to dst. The content types
// manifest is reopened and extended in place, so a package signed in a
// previous pass keeps a single signature override. Digests are computed
// over the unsigned package image (the package as it stands before the
// signature part is appended), which is the form verifiers reconstruct.
func Resign(src *Reader, dst io.Writer, creds *signature.Credentials) error {
	ctPart, err := src.Part(pack.ContentTypesFile)
	if err != nil {
		return err
	}
	ct, err := pack.ReopenContentTypeWriter(ctPart)
	ctPart.Close()
	if err != nil {
		return err
	}
	if err := ct.AddContentType(pack.SignatureP7X, pack.SignatureContentType, true); err != nil {
		return err
	}
	if err := ct.Close(); err != nil {
		return err
	}
	ctBytes := ct.Bytes()

	var unsigned bytes.Buffer
	if err := writeImage(src, &unsigned, ctBytes, nil); err != nil {
		return err
	}
	records, centralDir, err := splitImage(unsigned.Bytes())
	if err != nil {
		return err
	}

	blockMap, err := src.PartBytes(pack.BlockMapFile)
	if err != nil {
		return err
	}
	digests := &signature.Digests{
		ZipRecords:   records,
		CentralDir:   centralDir,
		ContentTypes: ctBytes,
		BlockMap:     blockMap,
	}
	if src.HasPart(pack.CodeIntegrityCat) {
		ci, err := src.PartBytes(pack.CodeIntegrityCat)
		if err != nil {
			return err
		}
		digests.CodeIntegrity = ci
	}

	p7x, err := signature.Sign(digests, creds)
	if err != nil {
		return err
	}

	return writeImage(src, dst, ctBytes, p7x)
}

// writeImage rebuilds the package: payload parts copied raw from src,
// then the signature part when given, then the content types manifest.
// The old content types and signature parts are never copied.
func writeImage(src *Reader, dst io.Writer, contentTypes, p7x []byte) error {
	zw := zip.NewWriter(dst)
	for _, name := range src.Parts() {
		if name == pack.ContentTypesFile || name == pack.SignatureP7X {
			continue
		}
		f := src.parts[name]
		raw, err := f.OpenRaw()
		if err != nil {
			return fmt.Errorf("container: open part %s: %w", name, err)
		}
		fh := f.FileHeader
		w, err := zw.CreateRaw(&fh)
		if err != nil {
			return fmt.Errorf("container: copy part %s: %w", name, err)
		}
		if _, err := io.Copy(w, raw); err != nil {
			return fmt.Errorf("container: copy part %s: %w", name, err)
		}
	}

	writeStored := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("container: create part %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("container: write part %s: %w", name, err)
		}
		return nil
	}
	if p7x != nil {
		if err := writeStored(pack.SignatureP7X, p7x); err != nil {
			return err
		}
	}
	if err := writeStored(pack.ContentTypesFile, contentTypes); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("container: close archive: %w", err)
	}
	return nil
}
