package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ctdata "github.com/google/certificate-transparency-go/testdata"
	"github.com/stretchr/testify/require"
)

// CertOptions describes a test certificate. Zero values leave the
// corresponding extension out.
type CertOptions struct {
	SubjectCN    string
	Organization []string
	Country      []string
	ExtraNames   []pkix.AttributeTypeAndValue

	NotBefore time.Time
	NotAfter  time.Time

	BasicConstraints bool
	IsCA             bool
	MaxPathLen       int
	MaxPathLenZero   bool

	KeyUsage    x509.KeyUsage
	ExtKeyUsage []x509.ExtKeyUsage

	DNSNames       []string
	EmailAddresses []string
	IPAddresses    []net.IP
	URIs           []string

	CRLDistributionPoints []string
	OCSPServer            []string
	PolicyIdentifiers     []string

	ExtraExtensions []pkix.Extension
}

// Issuer signs test certificates.
type Issuer struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

var serial atomic.Int64

// NewIssuer creates a self-signed ECDSA P-256 CA with the given common name.
func NewIssuer(t *testing.T, cn string) *Issuer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial.Add(1)),
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"certtab test CA"}},
		NotBefore:             time.Unix(1672531200, 0).UTC(),
		NotAfter:              time.Unix(1767225600, 0).UTC(),
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &Issuer{Cert: cert, Key: key}
}

// Issue signs a leaf described by opts and returns its DER.
func (iss *Issuer) Issue(t *testing.T, opts CertOptions) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	nb, na := opts.NotBefore, opts.NotAfter
	if nb.IsZero() {
		nb = time.Unix(1704067200, 0).UTC()
	}
	if na.IsZero() {
		na = nb.Add(90 * 24 * time.Hour)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial.Add(1)),
		Subject: pkix.Name{
			CommonName:   opts.SubjectCN,
			Organization: opts.Organization,
			Country:      opts.Country,
			ExtraNames:   opts.ExtraNames,
		},
		NotBefore:             nb,
		NotAfter:              na,
		BasicConstraintsValid: opts.BasicConstraints,
		IsCA:                  opts.IsCA,
		MaxPathLen:            opts.MaxPathLen,
		MaxPathLenZero:        opts.MaxPathLenZero,
		KeyUsage:              opts.KeyUsage,
		ExtKeyUsage:           opts.ExtKeyUsage,
		DNSNames:              opts.DNSNames,
		EmailAddresses:        opts.EmailAddresses,
		IPAddresses:           opts.IPAddresses,
		CRLDistributionPoints: opts.CRLDistributionPoints,
		OCSPServer:            opts.OCSPServer,
		ExtraExtensions:       opts.ExtraExtensions,
	}
	for _, u := range opts.URIs {
		parsed, err := url.Parse(u)
		require.NoError(t, err)
		tmpl.URIs = append(tmpl.URIs, parsed)
	}
	for _, p := range opts.PolicyIdentifiers {
		oid, err := x509.ParseOID(p)
		require.NoError(t, err)
		tmpl.Policies = append(tmpl.Policies, oid)
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, iss.Cert, key.Public(), iss.Key)
	require.NoError(t, err)
	return der
}

// IssueBase64 is Issue followed by standard base64, the form export rows carry.
func (iss *Issuer) IssueBase64(t *testing.T, opts CertOptions) string {
	return base64.StdEncoding.EncodeToString(iss.Issue(t, opts))
}

// ChainBase64 returns the issuer certificate as a one-element chain string.
func (iss *Issuer) ChainBase64() string {
	return base64.StdEncoding.EncodeToString(iss.Cert.Raw)
}

// CTCertBase64 returns the base64 body of a real CT-logged certificate with
// embedded SCTs from the certificate-transparency-go test data.
func CTCertBase64(t *testing.T) string {
	t.Helper()
	return pemBody(t, ctdata.TestEmbeddedCertPEM)
}

// CTPrecertBase64 returns the base64 body of a precertificate carrying the
// CT poison extension.
func CTPrecertBase64(t *testing.T) string {
	t.Helper()
	return pemBody(t, ctdata.TestPreCertPEM)
}

func pemBody(t *testing.T, s string) string {
	t.Helper()
	block, _ := pem.Decode([]byte(s))
	require.NotNil(t, block, "failed to decode PEM block")
	return base64.StdEncoding.EncodeToString(block.Bytes)
}

// ExportLine renders one headerless export CSV line.
func ExportLine(id int, cert, chain string) string {
	return strings.Join([]string{
		"https://ct.example.com/log", itoa(id), "deadbeef", cert, chain, "example.com", "1700000000", "1700000001",
	}, ",") + "\n"
}

func itoa(i int) string {
	return big.NewInt(int64(i)).String()
}
