package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agashlin/msix-packaging/container"
	"github.com/agashlin/msix-packaging/internal/mmfile"
	"github.com/agashlin/msix-packaging/pack"
)

// Extensions whose contents are already compressed; storing them beats
// re-deflating.
var storedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".zip": true, ".gz": true, ".mp3": true, ".mp4": true,
}

func init() {
	rootCmd.AddCommand(newPackCmd())
}

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <input-dir> <output.msix>",
		Short: "Build a package from a directory of payload files",
		Long: `The pack command walks a directory and builds a package containing
every file as a part, along with the generated content types manifest
and block map.

Example:
  msixpack pack ./appfiles app.msix
  msixpack pack ./appfiles app.msix --verbose`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(args[0], args[1])
		},
	}
	return cmd
}

func runPack(inputDir, outputPath string) error {
	var buf bytes.Buffer
	w := container.NewWriter(&buf)

	count := 0
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		data, cleanup, err := mmfile.Map(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		defer cleanup()

		contentType, forceOverride := partContentType(name)
		ext := strings.ToLower(filepath.Ext(name))
		compress := !storedExtensions[ext]

		slog.Debug("adding part",
			"name", name, "contentType", contentType, "size", len(data), "compress", compress)
		if err := w.AddPart(name, contentType, data, compress, forceOverride); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", inputDir, err)
	}

	if err := w.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize package: %w", err)
	}

	sink := &container.FileSink{Path: outputPath}
	if err := sink.WritePackage(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}

	printInfo("Packed %d parts into %s (%d bytes)\n", count, outputPath, buf.Len())
	return nil
}

// partContentType resolves the content type for a payload file. The
// application manifest has a package-specific type that is not
// inferable from its .xml extension; everything else goes by extension.
func partContentType(name string) (contentType string, forceOverride bool) {
	if name == pack.ManifestFile {
		return pack.ManifestContentType, false
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		// Strip charset parameters; content types are bare media types.
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = ct[:i]
		}
		return ct, false
	}
	return "application/octet-stream", false
}
