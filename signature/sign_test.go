package signature

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mozilla.org/pkcs7"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/agashlin/msix-packaging/crypto"
)

func testCredentials(t *testing.T) *Credentials {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "msixpack test signing"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &Credentials{Certificate: cert, PrivateKey: key}
}

func TestSignProducesP7X(t *testing.T) {
	digests := &Digests{
		ZipRecords:   []byte("records"),
		CentralDir:   []byte("centraldir"),
		ContentTypes: []byte("<Types/>"),
		BlockMap:     []byte("<BlockMap/>"),
	}

	p7x, err := Sign(digests, testCredentials(t))
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(p7x, []byte("PKCX")))
	parsed, err := pkcs7.Parse(p7x[4:])
	require.NoError(t, err)
	require.Len(t, parsed.Signers, 1)
	// Detached signature: the signed content is not embedded.
	assert.Empty(t, parsed.Content)
}

func TestDigestBlobLayout(t *testing.T) {
	d := &Digests{
		ZipRecords:   []byte("a"),
		CentralDir:   []byte("b"),
		ContentTypes: []byte("c"),
		BlockMap:     []byte("d"),
	}
	blob := d.Blob()

	require.Len(t, blob, 4+4*(4+crypto.HashSize))
	assert.Equal(t, []byte("APPX"), blob[:4])
	assert.Equal(t, []byte("AXPC"), blob[4:8])
	assert.Equal(t, crypto.ComputeHash([]byte("a")), blob[8:8+crypto.HashSize])

	// Code integrity region is optional and appended last.
	d.CodeIntegrity = []byte("ci")
	blob = d.Blob()
	require.Len(t, blob, 4+5*(4+crypto.HashSize))
	tail := blob[len(blob)-(4+crypto.HashSize):]
	assert.Equal(t, []byte("AXCI"), tail[:4])
	assert.Equal(t, crypto.ComputeHash([]byte("ci")), tail[4:])
}

func TestLoadPFXRoundTrip(t *testing.T) {
	creds := testCredentials(t)

	pfx, err := pkcs12.Modern.Encode(creds.PrivateKey, creds.Certificate, nil, "hunter2")
	require.NoError(t, err)

	loaded, err := LoadPFX(pfx, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, creds.Certificate.Raw, loaded.Certificate.Raw)
	assert.Empty(t, loaded.Chain)

	_, err = LoadPFX(pfx, "wrong")
	assert.Error(t, err)
}
