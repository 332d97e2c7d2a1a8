package extractor

import (
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/google/certificate-transparency-go/x509"
	"github.com/google/certificate-transparency-go/x509/pkix"
)

var (
	// ErrMalformedCertificate wraps every failure to decode a certificate.
	ErrMalformedCertificate = errors.New("malformed certificate")

	// ErrAmbiguousNameAttribute is returned when a name holds a recognized
	// attribute more than once.
	ErrAmbiguousNameAttribute = errors.New("ambiguous name attribute")
)

const (
	VersionV1      = "v1"
	VersionV3      = "v3"
	VersionUnknown = "unknown"
)

// Certificate is the decoded view of one certificate that records are built
// from.
type Certificate struct {
	Version   string
	NotBefore int64 // Unix seconds, UTC
	NotAfter  int64

	Issuer  pkix.Name
	Subject pkix.Name

	// SignatureHash is "" when the algorithm has no separate digest or is
	// not recognized.
	SignatureHash      string
	SignatureAlgorithm string

	Extensions []pkix.Extension
}

// ValidityTime is NotAfter minus NotBefore, in seconds.
func (c *Certificate) ValidityTime() int64 {
	return c.NotAfter - c.NotBefore
}

// WrapPEM wraps a base64 certificate body in PEM delimiters.
func WrapPEM(b64 string) string {
	b64 = strings.TrimSpace(b64)
	var sb strings.Builder
	sb.Grow(len(b64) + len(b64)/64 + 64)
	sb.WriteString("-----BEGIN CERTIFICATE-----\n")
	for len(b64) > 64 {
		sb.WriteString(b64[:64])
		sb.WriteByte('\n')
		b64 = b64[64:]
	}
	if b64 != "" {
		sb.WriteString(b64)
		sb.WriteByte('\n')
	}
	sb.WriteString("-----END CERTIFICATE-----\n")
	return sb.String()
}

// DecodeCertificate parses the base64 DER body of a certificate. Every
// failure wraps ErrMalformedCertificate.
func DecodeCertificate(b64 string) (*Certificate, error) {
	if strings.TrimSpace(b64) == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedCertificate)
	}
	block, _ := pem.Decode([]byte(WrapPEM(b64)))
	if block == nil {
		return nil, fmt.Errorf("%w: invalid base64 body", ErrMalformedCertificate)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if x509.IsFatal(err) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: no certificate", ErrMalformedCertificate)
	}
	if err := checkDuplicateExtensions(cert.Extensions); err != nil {
		return nil, err
	}

	alg, hash, err := signatureAlgorithmOf(cert.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCertificate, err)
	}

	return &Certificate{
		Version:            versionName(cert.Version),
		NotBefore:          cert.NotBefore.UTC().Unix(),
		NotAfter:           cert.NotAfter.UTC().Unix(),
		Issuer:             cert.Issuer,
		Subject:            cert.Subject,
		SignatureHash:      hash,
		SignatureAlgorithm: alg,
		Extensions:         cert.Extensions,
	}, nil
}

func versionName(v int) string {
	switch v {
	case 1:
		return VersionV1
	case 3:
		return VersionV3
	default:
		return VersionUnknown
	}
}

func checkDuplicateExtensions(exts []pkix.Extension) error {
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		oid := e.Id.String()
		if _, known := extensionIndex[oid]; !known {
			continue
		}
		if seen[oid] {
			return fmt.Errorf("%w: duplicate extension %s", ErrMalformedCertificate, oid)
		}
		seen[oid] = true
	}
	return nil
}
