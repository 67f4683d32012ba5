package container

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agashlin/msix-packaging/pack"
)

func buildPackage(t *testing.T, parts map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for name, data := range parts {
		require.NoError(t, w.AddPart(name, "application/octet-stream", data, false, false))
	}
	require.NoError(t, w.Finalize())
	return buf.Bytes()
}

func TestWriterProducesReadablePackage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.AddPart("icon.png", "image/png", []byte("pngdata"), false, false))
	require.NoError(t, w.AddPart(pack.ManifestFile, pack.ManifestContentType, []byte("<Package/>"), true, false))
	require.NoError(t, w.Finalize())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, []string{
		pack.BlockMapFile,
		pack.ManifestFile,
		pack.ContentTypesFile,
		"icon.png",
	}, r.Parts())

	manifest, err := r.PartBytes(pack.ManifestFile)
	require.NoError(t, err)
	assert.Equal(t, []byte("<Package/>"), manifest)

	ct, err := r.PartBytes(pack.ContentTypesFile)
	require.NoError(t, err)
	doc := string(ct)
	assert.Contains(t, doc, `<Default ContentType="image/png" Extension="png"/>`)
	assert.Contains(t, doc, `<Default ContentType="application/vnd.ms-appx.manifest+xml" Extension="xml"/>`)
	assert.Contains(t, doc, `<Override ContentType="application/vnd.ms-appx.blockmap+xml" PartName="/AppxBlockMap.xml"/>`)
}

func TestWriterBlockMapCoversPayloadOnly(t *testing.T) {
	// Three blocks: two full, one partial.
	payload := bytes.Repeat([]byte{0xAB}, pack.BlockSize*2+100)
	img := buildPackage(t, map[string][]byte{"data.bin": payload})

	r, err := NewReader(bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)
	bm, err := r.PartBytes(pack.BlockMapFile)
	require.NoError(t, err)

	doc := string(bm)
	assert.Equal(t, 1, strings.Count(doc, "<File"))
	assert.Equal(t, 3, strings.Count(doc, "<Block "))
	assert.Contains(t, doc, `Name="data.bin"`)
	assert.NotContains(t, doc, "[Content_Types].xml")
	assert.NotContains(t, doc, "AppxBlockMap")
}

func TestWriterCompressedPartRoundTrips(t *testing.T) {
	payload := bytes.Repeat([]byte("compressible content "), pack.BlockSize/4)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.AddPart("big.txt", "text/plain", payload, true, false))
	require.NoError(t, w.Finalize())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	got, err := r.PartBytes("big.txt")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Compressed blocks carry their compressed size.
	bm, err := r.PartBytes(pack.BlockMapFile)
	require.NoError(t, err)
	assert.Regexp(t, `<Block Hash="[^"]+" Size="\d+"/>`, string(bm))
}

func TestAddPartAfterFinalize(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Finalize())
	assert.ErrorIs(t, w.AddPart("x", "text/plain", nil, false, false), ErrFinalized)
	assert.ErrorIs(t, w.Finalize(), ErrFinalized)
}

func TestReaderMissingPart(t *testing.T) {
	img := buildPackage(t, map[string][]byte{"a.txt": []byte("a")})
	r, err := NewReader(bytes.NewReader(img), int64(len(img)))
	require.NoError(t, err)

	_, err = r.Part("missing.txt")
	assert.ErrorIs(t, err, ErrPartNotFound)
	assert.False(t, r.HasPart("missing.txt"))
	assert.True(t, r.HasPart("a.txt"))
}

func TestSplitImage(t *testing.T) {
	img := buildPackage(t, map[string][]byte{"a.txt": []byte("hello")})

	records, centralDir, err := splitImage(img)
	require.NoError(t, err)
	assert.Equal(t, len(img), len(records)+len(centralDir))
	// Records start with a local file header, the central directory with
	// a central directory header.
	assert.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, records[:4])
	assert.Equal(t, []byte{0x50, 0x4b, 0x01, 0x02}, centralDir[:4])
}

func TestSplitImageNotZip(t *testing.T) {
	_, _, err := splitImage([]byte("not a zip archive"))
	assert.ErrorIs(t, err, ErrNoEndOfCentralDir)
}

func TestSinksRoundTrip(t *testing.T) {
	img := buildPackage(t, map[string][]byte{"a.txt": []byte("a")})

	mem := &MemSink{}
	require.NoError(t, mem.WritePackage(img))
	assert.Equal(t, img, mem.Buf)

	path := t.TempDir() + "/out.msix"
	file := &FileSink{Path: path}
	require.NoError(t, file.WritePackage(img))
	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.HasPart("a.txt"))
}
