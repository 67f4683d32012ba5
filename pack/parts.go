// Package pack builds the XML manifest parts of an appx/OPC package:
// the content types manifest and the block map. Both writers drive the
// same underlying XML engine and follow the same lifecycle: construct,
// add entries, Close once, take Bytes.
package pack

// Well-known part names. These appear verbatim inside packages and are
// matched exactly against AddContentType names.
const (
	// SignatureP7X is the package digital signature part.
	SignatureP7X = "AppxSignature.p7x"
	// CodeIntegrityCat is the code integrity catalog part.
	CodeIntegrityCat = "AppxMetadata/CodeIntegrity.cat"
	// BlockMapFile is the package block map part.
	BlockMapFile = "AppxBlockMap.xml"
	// ManifestFile is the application manifest part.
	ManifestFile = "AppxManifest.xml"
	// ContentTypesFile is the OPC content types manifest part.
	ContentTypesFile = "[Content_Types].xml"
)

// Content types assigned to the well-known parts.
const (
	SignatureContentType     = "application/vnd.ms-appx.signature"
	CodeIntegrityContentType = "application/vnd.ms-pkiseccat"
	BlockMapContentType      = "application/vnd.ms-appx.blockmap+xml"
	ManifestContentType      = "application/vnd.ms-appx.manifest+xml"
)
