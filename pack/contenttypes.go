package pack

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agashlin/msix-packaging/internal/stream"
	"github.com/agashlin/msix-packaging/internal/xmlwriter"
)

// ErrManifestNotClosed indicates the content types document did not
// reach its terminal state when Close was called.
var ErrManifestNotClosed = errors.New("pack: content types manifest did not close correctly")

const (
	typesElement   = "Types"
	typesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

	defaultElement  = "Default"
	overrideElement = "Override"

	xmlnsAttribute       = "xmlns"
	contentTypeAttribute = "ContentType"
	extensionAttribute   = "Extension"
	partNameAttribute    = "PartName"
)

// ContentTypeWriter builds the [Content_Types].xml manifest, deciding
// for each part whether a by-extension Default rule or a per-part
// Override rule applies. It is single-owner mutable state: one writer
// per package build, not safe for concurrent use.
//
//	<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
//	  <Default ContentType="image/png" Extension="png"/>
//	  <Default ContentType="application/vnd.ms-appx.manifest+xml" Extension="xml"/>
//	  <Override ContentType="application/vnd.ms-appx.signature" PartName="/AppxSignature.p7x"/>
//	</Types>
type ContentTypeWriter struct {
	xml               *xmlwriter.Writer
	defaultExtensions map[string]string

	// Set when reopening a manifest that already declares the signature
	// or code integrity overrides from a previous signing pass.
	hasSignatureOverride bool
	hasCIOverride        bool
}

// NewContentTypeWriter opens a fresh manifest with an empty Types root.
func NewContentTypeWriter() *ContentTypeWriter {
	xml := xmlwriter.NewWriter(typesElement)
	xml.AddAttribute(xmlnsAttribute, typesNamespace)
	return &ContentTypeWriter{
		xml:               xml,
		defaultExtensions: make(map[string]string),
	}
}

// ReopenContentTypeWriter resumes an existing manifest so more parts
// can be declared, preserving every previously written entry verbatim.
// Whether the signature and code integrity overrides are already
// present is determined by searching the raw text for their serialized
// part names, not by parsing; the source is always prior output of this
// writer, so the exact literal is a reliable signal.
func ReopenContentTypeWriter(r io.Reader) (*ContentTypeWriter, error) {
	source, err := stream.ReadPart(r)
	if err != nil {
		return nil, fmt.Errorf("pack: read existing content types: %w", err)
	}

	text := string(source)
	w := &ContentTypeWriter{
		defaultExtensions:    make(map[string]string),
		hasSignatureOverride: strings.Contains(text, PartNameSearchString(SignatureP7X)),
		hasCIOverride:        strings.Contains(text, PartNameSearchString(CodeIntegrityCat)),
	}

	w.xml, err = xmlwriter.Initialize(source, typesElement)
	if err != nil {
		return nil, fmt.Errorf("pack: reopen content types: %w", err)
	}
	return w, nil
}

// AddContentType declares the content type for one part. Parts whose
// extension shares an existing Default rule with the same type need no
// new declaration; an extension already defaulted to a different type
// gets a per-part Override. forceOverride skips extension resolution
// entirely, for parts whose type is never inferable from their name.
//
// The signature and code integrity parts are idempotent across signing
// passes: if their override was already present when the manifest was
// reopened, the call is a no-op.
func (w *ContentTypeWriter) AddContentType(name, contentType string, forceOverride bool) error {
	if (name == SignatureP7X && w.hasSignatureOverride) ||
		(name == CodeIntegrityCat && w.hasCIOverride) {
		return nil
	}

	if forceOverride {
		return w.addOverride(name, contentType)
	}

	// Extension is everything after the last dot; a dotless name is
	// looked up whole (LastIndex returns -1, so the slice is the name).
	ext := strings.ToLower(name[strings.LastIndex(name, ".")+1:])
	if existing, ok := w.defaultExtensions[ext]; ok {
		if existing != contentType {
			// Extension already defaulted to a different type; this part
			// needs its own exception. The Default entry stays as-is.
			return w.addOverride(name, contentType)
		}
		return nil
	}
	w.defaultExtensions[ext] = contentType
	return w.addDefault(ext, contentType)
}

// Close finalizes the Types root. It fails if the underlying document
// is not in a closable state, which catches double-Close and misuse of
// the XML engine during the session.
func (w *ContentTypeWriter) Close() error {
	if err := w.xml.CloseElement(); err != nil {
		return fmt.Errorf("pack: close content types: %w", err)
	}
	if w.xml.State() != xmlwriter.StateFinish {
		return ErrManifestNotClosed
	}
	return nil
}

// Bytes returns the serialized manifest. Valid after Close.
func (w *ContentTypeWriter) Bytes() []byte {
	return w.xml.Bytes()
}

// <Default ContentType="application/vnd.ms-appx.manifest+xml" Extension="xml"/>
func (w *ContentTypeWriter) addDefault(ext, contentType string) error {
	w.xml.StartElement(defaultElement)
	w.xml.AddAttribute(contentTypeAttribute, contentType)
	w.xml.AddAttribute(extensionAttribute, ext)
	return w.xml.CloseElement()
}

// <Override ContentType="application/vnd.ms-appx.signature" PartName="/AppxSignature.p7x"/>
func (w *ContentTypeWriter) addOverride(name, contentType string) error {
	w.xml.StartElement(overrideElement)
	w.xml.AddAttribute(contentTypeAttribute, contentType)
	w.xml.AddAttribute(partNameAttribute, "/"+name)
	return w.xml.CloseElement()
}

// PartNameSearchString returns the literal substring an Override for
// fileName leaves in serialized XML: the quoted absolute part name,
// e.g. AppxSignature.p7x => "/AppxSignature.p7x" (quotes included).
// Used only for the presence search during reopen; it intentionally
// matches this serializer's exact quoting and nothing broader.
func PartNameSearchString(fileName string) string {
	return `"/` + fileName + `"`
}
