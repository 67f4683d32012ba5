package pack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshManifestDefaults(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.AddContentType("icon.png", "image/png", false))
	require.NoError(t, w.AddContentType(ManifestFile, ManifestContentType, false))
	require.NoError(t, w.Close())

	doc := string(w.Bytes())
	assert.Contains(t, doc, `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	assert.Contains(t, doc, `<Default ContentType="image/png" Extension="png"/>`)
	assert.Contains(t, doc, `<Default ContentType="application/vnd.ms-appx.manifest+xml" Extension="xml"/>`)
	assert.Equal(t, 2, strings.Count(doc, "<Default"))
	assert.Zero(t, strings.Count(doc, "<Override"))
	assert.True(t, strings.HasSuffix(doc, "</Types>"))
}

func TestDefaultDedup(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.AddContentType("a.png", "image/png", false))
	require.NoError(t, w.AddContentType("b.png", "image/png", false))
	require.NoError(t, w.AddContentType("assets/c.png", "image/png", false))
	require.NoError(t, w.Close())

	assert.Equal(t, 1, strings.Count(string(w.Bytes()), `Extension="png"`))
}

func TestExtensionCaseInsensitive(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.AddContentType("a.PNG", "image/png", false))
	require.NoError(t, w.AddContentType("b.png", "image/png", false))
	require.NoError(t, w.Close())

	doc := string(w.Bytes())
	assert.Equal(t, 1, strings.Count(doc, "<Default"))
	assert.Contains(t, doc, `Extension="png"`)
	assert.NotContains(t, doc, `Extension="PNG"`)
}

func TestOverrideOnConflict(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.AddContentType(ManifestFile, ManifestContentType, false))
	require.NoError(t, w.AddContentType("data.xml", "text/xml", false))
	require.NoError(t, w.Close())

	doc := string(w.Bytes())
	// The xml Default keeps its first type; the conflicting part gets an
	// Override and no second Default appears.
	assert.Contains(t, doc, `<Default ContentType="application/vnd.ms-appx.manifest+xml" Extension="xml"/>`)
	assert.Contains(t, doc, `<Override ContentType="text/xml" PartName="/data.xml"/>`)
	assert.Equal(t, 1, strings.Count(doc, "<Default"))
	assert.Equal(t, 1, strings.Count(doc, "<Override"))
}

func TestForcedOverrideAlwaysEmits(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.AddContentType("a.png", "image/png", false))
	require.NoError(t, w.AddContentType("b.png", "image/png", true))
	require.NoError(t, w.Close())

	doc := string(w.Bytes())
	assert.Contains(t, doc, `<Default ContentType="image/png" Extension="png"/>`)
	assert.Contains(t, doc, `<Override ContentType="image/png" PartName="/b.png"/>`)
}

func TestDotlessNameUsesWholeName(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.AddContentType("LICENSE", "text/plain", false))
	require.NoError(t, w.AddContentType("license", "text/plain", false))
	require.NoError(t, w.Close())

	assert.Equal(t, 1, strings.Count(string(w.Bytes()), `Extension="license"`))
}

func TestCloseTwiceFails(t *testing.T) {
	w := NewContentTypeWriter()
	require.NoError(t, w.Close())
	assert.Error(t, w.Close())
}

func TestReopenPreservesAndExtends(t *testing.T) {
	orig := NewContentTypeWriter()
	require.NoError(t, orig.AddContentType("icon.png", "image/png", false))
	require.NoError(t, orig.AddContentType(ManifestFile, ManifestContentType, false))
	require.NoError(t, orig.Close())

	w, err := ReopenContentTypeWriter(bytes.NewReader(orig.Bytes()))
	require.NoError(t, err)
	require.NoError(t, w.AddContentType(SignatureP7X, SignatureContentType, true))
	require.NoError(t, w.Close())

	doc := string(w.Bytes())
	assert.Contains(t, doc, `<Default ContentType="image/png" Extension="png"/>`)
	assert.Contains(t, doc, `<Override ContentType="application/vnd.ms-appx.signature" PartName="/AppxSignature.p7x"/>`)
}

func TestReopenSignatureIdempotent(t *testing.T) {
	orig := NewContentTypeWriter()
	require.NoError(t, orig.AddContentType("icon.png", "image/png", false))
	require.NoError(t, orig.AddContentType(SignatureP7X, SignatureContentType, true))
	require.NoError(t, orig.Close())
	before := string(orig.Bytes())

	w, err := ReopenContentTypeWriter(bytes.NewReader(orig.Bytes()))
	require.NoError(t, err)
	require.NoError(t, w.AddContentType(SignatureP7X, SignatureContentType, true))
	require.NoError(t, w.Close())

	// Re-signing adds nothing; the document survives the round trip.
	assert.Equal(t, before, string(w.Bytes()))
}

func TestReopenCodeIntegrityIdempotent(t *testing.T) {
	orig := NewContentTypeWriter()
	require.NoError(t, orig.AddContentType(CodeIntegrityCat, CodeIntegrityContentType, true))
	require.NoError(t, orig.Close())
	before := string(orig.Bytes())

	w, err := ReopenContentTypeWriter(bytes.NewReader(orig.Bytes()))
	require.NoError(t, err)
	require.NoError(t, w.AddContentType(CodeIntegrityCat, CodeIntegrityContentType, true))
	require.NoError(t, w.Close())

	assert.Equal(t, before, string(w.Bytes()))
}

func TestReopenWithoutOverridesStillAdds(t *testing.T) {
	orig := NewContentTypeWriter()
	require.NoError(t, orig.AddContentType("icon.png", "image/png", false))
	require.NoError(t, orig.Close())

	w, err := ReopenContentTypeWriter(bytes.NewReader(orig.Bytes()))
	require.NoError(t, err)
	require.NoError(t, w.AddContentType(SignatureP7X, SignatureContentType, true))
	require.NoError(t, w.Close())

	assert.Equal(t, 1, strings.Count(string(w.Bytes()), "<Override"))
}

func TestReopenMalformedSource(t *testing.T) {
	_, err := ReopenContentTypeWriter(strings.NewReader("<NotTypes/>"))
	assert.Error(t, err)
}

func TestPartNameSearchString(t *testing.T) {
	assert.Equal(t, `"/AppxSignature.p7x"`, PartNameSearchString(SignatureP7X))
	assert.Equal(t, `"/AppxMetadata/CodeIntegrity.cat"`, PartNameSearchString(CodeIntegrityCat))
}
