// Package signature creates the detached PKCS#7 signature part for a
// package: credentials come from a PFX bundle, the signed payload is
// the digest blob covering the package's hashed regions, and the output
// is the AppxSignature.p7x part body.
package signature

import (
	"crypto"
	"crypto/x509"
	"fmt"

	"software.sslmate.com/src/go-pkcs12"
)

// Credentials holds the signing certificate, its private key, and any
// intermediate chain certificates to embed in the signature.
type Credentials struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey
	Chain       []*x509.Certificate
}

// LoadPFX decodes a PKCS#12/PFX bundle into signing credentials.
func LoadPFX(data []byte, password string) (*Credentials, error) {
	key, cert, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("signature: decode pfx: %w", err)
	}
	return &Credentials{
		Certificate: cert,
		PrivateKey:  key,
		Chain:       chain,
	}, nil
}
