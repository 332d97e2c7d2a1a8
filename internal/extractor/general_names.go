package extractor

import (
	encoding_asn1 "encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"

	"github.com/google/certificate-transparency-go/asn1"
	"github.com/google/certificate-transparency-go/x509/pkix"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	tagOtherName     = cbasn1.Tag(0).ContextSpecific().Constructed()
	tagRFC822Name    = cbasn1.Tag(1).ContextSpecific()
	tagDNSName       = cbasn1.Tag(2).ContextSpecific()
	tagDirectoryName = cbasn1.Tag(4).ContextSpecific().Constructed()
	tagURI           = cbasn1.Tag(6).ContextSpecific()
	tagIPAddress     = cbasn1.Tag(7).ContextSpecific()
	tagRegisteredID  = cbasn1.Tag(8).ContextSpecific()
)

// parseGeneralNames renders every entry of a GeneralNames sequence as a
// string, in encoded order.
//
//	GeneralNames ::= SEQUENCE SIZE (1..MAX) OF GeneralName
func parseGeneralNames(der []byte) ([]string, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errors.New("malformed GeneralNames")
	}

	names := []string{}
	for !seq.Empty() {
		var v cryptobyte.String
		var tag cbasn1.Tag
		if !seq.ReadAnyASN1(&v, &tag) {
			return nil, errors.New("malformed GeneralName")
		}
		name, err := generalNameString(tag, v)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func generalNameString(tag cbasn1.Tag, v cryptobyte.String) (string, error) {
	switch tag {
	case tagRFC822Name, tagDNSName, tagURI:
		return string(v), nil
	case tagIPAddress:
		if len(v) == net.IPv4len || len(v) == net.IPv6len {
			return net.IP(v).String(), nil
		}
		return hex.EncodeToString(v), nil
	case tagRegisteredID:
		oid, err := implicitOID(v)
		if err != nil {
			return "", err
		}
		return oid.String(), nil
	case tagDirectoryName:
		var rdn pkix.RDNSequence
		if rest, err := asn1.Unmarshal(v, &rdn); err != nil {
			return "", fmt.Errorf("malformed directoryName: %w", err)
		} else if len(rest) > 0 {
			return "", errors.New("trailing data after directoryName")
		}
		var dir pkix.Name
		dir.FillFromRDNSequence(&rdn)
		return dir.String(), nil
	case tagOtherName:
		var oid encoding_asn1.ObjectIdentifier
		if !v.ReadASN1ObjectIdentifier(&oid) {
			return "", errors.New("malformed otherName")
		}
		return "othername:" + oid.String(), nil
	default:
		return fmt.Sprintf("tag%d:%s", tag&0x1f, hex.EncodeToString(v)), nil
	}
}

// implicitOID parses the contents of an implicitly tagged OBJECT IDENTIFIER.
func implicitOID(contents []byte) (encoding_asn1.ObjectIdentifier, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.OBJECT_IDENTIFIER, func(child *cryptobyte.Builder) {
		child.AddBytes(contents)
	})
	der, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	s := cryptobyte.String(der)
	var oid encoding_asn1.ObjectIdentifier
	if !s.ReadASN1ObjectIdentifier(&oid) {
		return nil, errors.New("malformed registeredID")
	}
	return oid, nil
}
