package signature

import "github.com/agashlin/msix-packaging/crypto"

// Digest blob magic values. The blob opens with the APPX header
// followed by fixed-order tagged SHA-256 digests, one per hashed
// region of the package.
const (
	digestHeader = "APPX"

	tagZipRecords    = "AXPC" // ZIP local file records
	tagCentralDir    = "AXCD" // ZIP central directory
	tagContentTypes  = "AXCT" // uncompressed [Content_Types].xml
	tagBlockMap      = "AXBM" // uncompressed AppxBlockMap.xml
	tagCodeIntegrity = "AXCI" // uncompressed CodeIntegrity.cat, when present
)

// Digests collects the raw byte regions of a package that the
// signature covers. CodeIntegrity is optional; the other four regions
// are always present.
type Digests struct {
	ZipRecords    []byte
	CentralDir    []byte
	ContentTypes  []byte
	BlockMap      []byte
	CodeIntegrity []byte
}

// Blob serializes the digest blob that gets signed: the APPX header,
// then tag + SHA-256 pairs in fixed order.
func (d *Digests) Blob() []byte {
	regions := []struct {
		tag  string
		data []byte
	}{
		{tagZipRecords, d.ZipRecords},
		{tagCentralDir, d.CentralDir},
		{tagContentTypes, d.ContentTypes},
		{tagBlockMap, d.BlockMap},
	}

	buf := make([]byte, 0, len(digestHeader)+5*(4+crypto.HashSize))
	buf = append(buf, digestHeader...)
	for _, r := range regions {
		buf = append(buf, r.tag...)
		buf = append(buf, crypto.ComputeHash(r.data)...)
	}
	if d.CodeIntegrity != nil {
		buf = append(buf, tagCodeIntegrity...)
		buf = append(buf, crypto.ComputeHash(d.CodeIntegrity)...)
	}
	return buf
}
