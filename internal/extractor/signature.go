package extractor

import (
	encoding_asn1 "encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const UnknownSignatureAlgorithm = "unknown"

// signatureAlgorithmOf reads the outer signatureAlgorithm of a DER
// certificate and resolves it to a symbolic name and digest name.
//
//	Certificate ::= SEQUENCE { tbsCertificate, signatureAlgorithm, signatureValue }
func signatureAlgorithmOf(der []byte) (string, string, error) {
	input := cryptobyte.String(der)
	var cert, tbs, algID cryptobyte.String
	if !input.ReadASN1(&cert, cbasn1.SEQUENCE) ||
		!cert.ReadASN1(&tbs, cbasn1.SEQUENCE) ||
		!cert.ReadASN1(&algID, cbasn1.SEQUENCE) {
		return "", "", errors.New("malformed signature algorithm identifier")
	}
	var oid encoding_asn1.ObjectIdentifier
	if !algID.ReadASN1ObjectIdentifier(&oid) {
		return "", "", errors.New("malformed signature algorithm OID")
	}

	alg, ok := signatureAlgorithms[oid.String()]
	if !ok {
		return UnknownSignatureAlgorithm, "", nil
	}
	if oid.String() == oidRSASSAPSS {
		return alg.Name, pssHash(algID), nil
	}
	return alg.Name, alg.Hash, nil
}

// pssHash reads the digest from RSASSA-PSS-params. An absent hashAlgorithm
// means SHA-1.
//
//	RSASSA-PSS-params ::= SEQUENCE { hashAlgorithm [0] AlgorithmIdentifier DEFAULT sha1, ... }
func pssHash(params cryptobyte.String) string {
	var seq cryptobyte.String
	if !params.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return "sha1"
	}
	var wrapped cryptobyte.String
	var present bool
	if !seq.ReadOptionalASN1(&wrapped, &present, cbasn1.Tag(0).Constructed().ContextSpecific()) || !present {
		return "sha1"
	}
	var hashAlg cryptobyte.String
	var oid encoding_asn1.ObjectIdentifier
	if !wrapped.ReadASN1(&hashAlg, cbasn1.SEQUENCE) || !hashAlg.ReadASN1ObjectIdentifier(&oid) {
		return ""
	}
	return hashAlgorithms[oid.String()]
}
