package signature

import (
	"fmt"

	"go.mozilla.org/pkcs7"
)

// p7xMagic prefixes the DER signature inside the AppxSignature.p7x part.
var p7xMagic = []byte("PKCX")

// Sign produces the AppxSignature.p7x part body: the P7X magic followed
// by a detached PKCS#7 SignedData over the digest blob. SHA-256 is the
// only digest algorithm used, and the full certificate chain is always
// embedded so verifiers can build a path offline.
func Sign(digests *Digests, creds *Credentials) ([]byte, error) {
	payload := digests.Blob()

	sd, err := pkcs7.NewSignedData(payload)
	if err != nil {
		return nil, fmt.Errorf("signature: init signed data: %w", err)
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := sd.AddSignerChain(creds.Certificate, creds.PrivateKey, creds.Chain, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("signature: add signer: %w", err)
	}
	sd.Detach()

	der, err := sd.Finish()
	if err != nil {
		return nil, fmt.Errorf("signature: finish signed data: %w", err)
	}

	out := make([]byte, 0, len(p7xMagic)+len(der))
	out = append(out, p7xMagic...)
	out = append(out, der...)
	return out, nil
}
