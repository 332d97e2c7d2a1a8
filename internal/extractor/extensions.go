package extractor

import (
	encoding_asn1 "encoding/asn1"
	"errors"
	"fmt"
	"math/big"

	"github.com/chtzvt/certtab/internal/table"
	"github.com/google/certificate-transparency-go/tls"
	ctx509 "github.com/google/certificate-transparency-go/x509"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Unknown is the field value emitted for a recognized extension whose value
// could not be decoded.
const Unknown = "unknown"

// ExtensionValue is the decoded value of one recognized extension. The set of
// implementations is closed; ExtensionFields switches over all of them.
type ExtensionValue interface {
	extensionValue()
}

type BasicConstraints struct {
	CA         bool
	PathLength *int64
}

type KeyUsage struct {
	DigitalSignature  bool
	ContentCommitment bool
	KeyEncipherment   bool
	DataEncipherment  bool
	KeyAgreement      bool
	KeyCertSign       bool
	CRLSign           bool
	EncipherOnly      bool
	DecipherOnly      bool
}

// GeneralNames is a subject or issuer alternative name list.
type GeneralNames []string

// Opaque is an extension that is validated but contributes no fields.
type Opaque struct{}

// Count is the number of entries of a sequence-valued extension.
type Count int

// ExtendedKeyUsage holds the purpose OIDs in encoded order.
type ExtendedKeyUsage []string

// Integer is an INTEGER-valued extension.
type Integer struct {
	Value *big.Int
}

// Present marks an extension whose presence is the whole signal.
type Present struct{}

// SCTList is an embedded list of signed certificate timestamps.
type SCTList struct {
	Count int
}

type PolicyConstraints struct {
	RequireExplicitPolicy *int64
	InhibitPolicyMapping  *int64
}

// Unimplemented is a recognized extension without a decoding rule.
type Unimplemented struct{}

func (BasicConstraints) extensionValue()  {}
func (KeyUsage) extensionValue()          {}
func (GeneralNames) extensionValue()      {}
func (Opaque) extensionValue()            {}
func (Count) extensionValue()             {}
func (ExtendedKeyUsage) extensionValue()  {}
func (Integer) extensionValue()           {}
func (Present) extensionValue()           {}
func (SCTList) extensionValue()           {}
func (PolicyConstraints) extensionValue() {}
func (Unimplemented) extensionValue()     {}

var errMalformedExtension = errors.New("malformed extension value")

// DecodeExtension decodes the DER value of a recognized extension.
func DecodeExtension(id ExtensionID, der []byte) (ExtensionValue, error) {
	input := cryptobyte.String(der)
	switch id.Name {
	case "BASIC_CONSTRAINTS":
		return decodeBasicConstraints(input)
	case "KEY_USAGE":
		return decodeKeyUsage(input)
	case "SUBJECT_ALTERNATIVE_NAME", "ISSUER_ALTERNATIVE_NAME":
		names, err := parseGeneralNames(der)
		if err != nil {
			return nil, err
		}
		return GeneralNames(names), nil
	case "SUBJECT_KEY_IDENTIFIER":
		return opaque(input, cbasn1.OCTET_STRING)
	case "AUTHORITY_KEY_IDENTIFIER", "NAME_CONSTRAINTS",
		"AUTHORITY_INFORMATION_ACCESS", "SUBJECT_INFORMATION_ACCESS":
		return opaque(input, cbasn1.SEQUENCE)
	case "CRL_DISTRIBUTION_POINTS", "CERTIFICATE_POLICIES":
		return decodeCount(input)
	case "EXTENDED_KEY_USAGE":
		return decodeExtendedKeyUsage(input)
	case "INHIBIT_ANY_POLICY", "CRL_NUMBER":
		return decodeInteger(input)
	case "OCSP_NO_CHECK":
		// Some issuers encode an empty value instead of NULL.
		if len(der) == 0 {
			return Present{}, nil
		}
		return present(input, cbasn1.NULL)
	case "PRECERT_POISON":
		return present(input, cbasn1.NULL)
	case "TLS_FEATURE", "FRESHEST_CRL", "ISSUING_DISTRIBUTION_POINT":
		return present(input, cbasn1.SEQUENCE)
	case "DELTA_CRL_INDICATOR":
		return present(input, cbasn1.INTEGER)
	case "SIGNED_CERTIFICATE_TIMESTAMPS":
		return present(input, cbasn1.OCTET_STRING)
	case "PRECERT_SIGNED_CERTIFICATE_TIMESTAMPS":
		return decodeSCTList(input)
	case "POLICY_CONSTRAINTS":
		return decodePolicyConstraints(input)
	case "POLICY_MAPPINGS", "SUBJECT_DIRECTORY_ATTRIBUTES":
		return Unimplemented{}, nil
	}
	return nil, fmt.Errorf("no decoder for extension %s", id.Name)
}

// ExtensionFields expands a decoded extension into named fields. name is the
// base column of the extension. A nil or unexpected value yields the Unknown
// sentinel.
func ExtensionFields(name string, v ExtensionValue) []table.Field {
	switch ext := v.(type) {
	case BasicConstraints:
		var pathLen interface{}
		if ext.PathLength != nil {
			pathLen = *ext.PathLength
		}
		return []table.Field{
			{Name: name + "_CA", Value: ext.CA},
			{Name: name + "_PATH_LENGTH", Value: pathLen},
		}
	case KeyUsage:
		return []table.Field{
			{Name: name + "_DIGITAL_SIGNATURE", Value: ext.DigitalSignature},
			{Name: name + "_CONTENT_COMMITMENT", Value: ext.ContentCommitment},
			{Name: name + "_KEY_ENCIPHERMENT", Value: ext.KeyEncipherment},
			{Name: name + "_DATA_ENCIPHERMENT", Value: ext.DataEncipherment},
			{Name: name + "_KEY_AGREEMENT", Value: ext.KeyAgreement},
			{Name: name + "_KEY_CERT_SIGN", Value: ext.KeyCertSign},
			{Name: name + "_CRL_SIGN", Value: ext.CRLSign},
			{Name: name + "_ENCIPHER_ONLY", Value: ext.KeyAgreement && ext.EncipherOnly},
			{Name: name + "_DECIPHER_ONLY", Value: ext.KeyAgreement && ext.DecipherOnly},
		}
	case GeneralNames:
		return []table.Field{{Name: name, Value: []string(ext)}}
	case Opaque, Unimplemented:
		return nil
	case Count:
		return []table.Field{{Name: name + "_COUNT", Value: int64(ext)}}
	case ExtendedKeyUsage:
		have := make(map[string]bool, len(ext))
		for _, oid := range ext {
			have[oid] = true
		}
		fields := make([]table.Field, len(ExtendedKeyUsages))
		for i, u := range ExtendedKeyUsages {
			fields[i] = table.Field{Name: name + "_" + u.Name, Value: have[u.OID]}
		}
		return fields
	case Integer:
		if ext.Value == nil {
			break
		}
		if ext.Value.IsInt64() {
			return []table.Field{{Name: name, Value: ext.Value.Int64()}}
		}
		return []table.Field{{Name: name, Value: ext.Value.String()}}
	case Present:
		return []table.Field{{Name: name, Value: true}}
	case SCTList:
		return []table.Field{{Name: name, Value: int64(ext.Count)}}
	case PolicyConstraints:
		return []table.Field{
			{Name: name + "_REQUIRE_EXPLICIT_POLICY", Value: nullableInt(ext.RequireExplicitPolicy)},
			{Name: name + "_INHIBIT_POLICY_MAPPING", Value: nullableInt(ext.InhibitPolicyMapping)},
		}
	}
	return []table.Field{{Name: name, Value: Unknown}}
}

func nullableInt(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func opaque(input cryptobyte.String, tag cbasn1.Tag) (ExtensionValue, error) {
	var body cryptobyte.String
	if !input.ReadASN1(&body, tag) || !input.Empty() {
		return nil, errMalformedExtension
	}
	return Opaque{}, nil
}

func present(input cryptobyte.String, tag cbasn1.Tag) (ExtensionValue, error) {
	if _, err := opaque(input, tag); err != nil {
		return nil, err
	}
	return Present{}, nil
}

// readBool reads a BOOLEAN, accepting any non-zero byte as true.
func readBool(s *cryptobyte.String, out *bool) bool {
	var v cryptobyte.String
	if !s.ReadASN1(&v, cbasn1.BOOLEAN) || len(v) != 1 {
		return false
	}
	*out = v[0] != 0
	return true
}

//	BasicConstraints ::= SEQUENCE { cA BOOLEAN DEFAULT FALSE, pathLenConstraint INTEGER (0..MAX) OPTIONAL }
func decodeBasicConstraints(input cryptobyte.String) (ExtensionValue, error) {
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errMalformedExtension
	}
	var bc BasicConstraints
	if seq.PeekASN1Tag(cbasn1.BOOLEAN) && !readBool(&seq, &bc.CA) {
		return nil, errMalformedExtension
	}
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		var n int64
		if !seq.ReadASN1Integer(&n) {
			return nil, errMalformedExtension
		}
		bc.PathLength = &n
	}
	if !seq.Empty() {
		return nil, errMalformedExtension
	}
	return bc, nil
}

//	KeyUsage ::= BIT STRING
func decodeKeyUsage(input cryptobyte.String) (ExtensionValue, error) {
	var bits encoding_asn1.BitString
	if !input.ReadASN1BitString(&bits) || !input.Empty() {
		return nil, errMalformedExtension
	}
	return KeyUsage{
		DigitalSignature:  bits.At(0) == 1,
		ContentCommitment: bits.At(1) == 1,
		KeyEncipherment:   bits.At(2) == 1,
		DataEncipherment:  bits.At(3) == 1,
		KeyAgreement:      bits.At(4) == 1,
		KeyCertSign:       bits.At(5) == 1,
		CRLSign:           bits.At(6) == 1,
		EncipherOnly:      bits.At(7) == 1,
		DecipherOnly:      bits.At(8) == 1,
	}, nil
}

// decodeCount counts the elements of a SEQUENCE OF.
func decodeCount(input cryptobyte.String) (ExtensionValue, error) {
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errMalformedExtension
	}
	n := 0
	for !seq.Empty() {
		var elem cryptobyte.String
		if !seq.ReadASN1(&elem, cbasn1.SEQUENCE) {
			return nil, errMalformedExtension
		}
		n++
	}
	return Count(n), nil
}

//	ExtKeyUsageSyntax ::= SEQUENCE SIZE (1..MAX) OF KeyPurposeId
func decodeExtendedKeyUsage(input cryptobyte.String) (ExtensionValue, error) {
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errMalformedExtension
	}
	eku := ExtendedKeyUsage{}
	for !seq.Empty() {
		var oid encoding_asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return nil, errMalformedExtension
		}
		eku = append(eku, oid.String())
	}
	return eku, nil
}

func decodeInteger(input cryptobyte.String) (ExtensionValue, error) {
	n := new(big.Int)
	if !input.ReadASN1Integer(n) || !input.Empty() {
		return nil, errMalformedExtension
	}
	return Integer{Value: n}, nil
}

// decodeSCTList counts the SCTs of a TLS-encoded SignedCertificateTimestampList
// wrapped in an OCTET STRING.
func decodeSCTList(input cryptobyte.String) (ExtensionValue, error) {
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cbasn1.OCTET_STRING) || !input.Empty() {
		return nil, errMalformedExtension
	}
	var list ctx509.SignedCertificateTimestampList
	rest, err := tls.Unmarshal(inner, &list)
	if err != nil {
		return nil, fmt.Errorf("malformed SCT list: %w", err)
	}
	if len(rest) > 0 {
		return nil, errors.New("trailing data after SCT list")
	}
	return SCTList{Count: len(list.SCTList)}, nil
}

//	PolicyConstraints ::= SEQUENCE {
//	     requireExplicitPolicy  [0] SkipCerts OPTIONAL,
//	     inhibitPolicyMapping   [1] SkipCerts OPTIONAL }
func decodePolicyConstraints(input cryptobyte.String) (ExtensionValue, error) {
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errMalformedExtension
	}
	var pc PolicyConstraints
	for i, dst := range []**int64{&pc.RequireExplicitPolicy, &pc.InhibitPolicyMapping} {
		tag := cbasn1.Tag(i).ContextSpecific()
		if !seq.PeekASN1Tag(tag) {
			continue
		}
		var n int64
		if !seq.ReadASN1Int64WithTag(&n, tag) {
			return nil, errMalformedExtension
		}
		*dst = &n
	}
	if !seq.Empty() {
		return nil, errMalformedExtension
	}
	return pc, nil
}
