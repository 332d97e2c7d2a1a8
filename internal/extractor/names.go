package extractor

import (
	"encoding/hex"
	"fmt"

	"github.com/google/certificate-transparency-go/asn1"
	"github.com/google/certificate-transparency-go/x509/pkix"
)

// ExtractNameAttributes returns one value per entry of NameAttributes, in
// that order: nil when the attribute is absent, its string value when it
// occurs once. An attribute occurring more than once is an error wrapping
// ErrAmbiguousNameAttribute.
func ExtractNameAttributes(name pkix.Name) ([]interface{}, error) {
	values := make([]interface{}, len(NameAttributes))
	for _, atv := range name.Names {
		i, ok := nameAttributeIndex[atv.Type.String()]
		if !ok {
			continue
		}
		if values[i] != nil {
			return nil, fmt.Errorf("%w: %s occurs more than once", ErrAmbiguousNameAttribute, NameAttributes[i].Name)
		}
		values[i] = attributeString(atv.Value)
	}
	return values, nil
}

func attributeString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return hex.EncodeToString(s)
	case asn1.BitString:
		return hex.EncodeToString(s.Bytes)
	default:
		return fmt.Sprint(v)
	}
}
