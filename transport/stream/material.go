package stream

import (
	"crypto/tls"

	"github.com/cty123/trojan-relay/common/errors"
)

// LoadCertificate loads a PEM certificate chain and private key (PKCS#8,
// RSA, or SEC1, all handled transparently by crypto/tls.X509KeyPair).
// PEM loading is an external collaborator per spec §1; this is the
// minimal implementation the core pipeline needs to obtain a usable
// tls.Certificate, nothing more.
func LoadCertificate(certPath, keyPath string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, errors.New("failed to load TLS certificate").Base(err).WithKind(errors.KindInvalidInput)
	}
	return cert, nil
}
