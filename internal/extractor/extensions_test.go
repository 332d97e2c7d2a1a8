package extractor

import (
	"testing"

	"github.com/chtzvt/certtab/internal/table"
	"github.com/stretchr/testify/require"
)

func extensionByName(t *testing.T, name string) ExtensionID {
	t.Helper()
	for _, id := range Extensions {
		if id.Name == name {
			return id
		}
	}
	t.Fatalf("unknown extension %s", name)
	return ExtensionID{}
}

func decodeFields(t *testing.T, name string, der []byte) []table.Field {
	t.Helper()
	id := extensionByName(t, name)
	v, err := DecodeExtension(id, der)
	require.NoError(t, err)
	return ExtensionFields(id.Column(), v)
}

func fieldMap(fields []table.Field) map[string]interface{} {
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Name] = f.Value
	}
	return m
}

func TestBasicConstraints(t *testing.T) {
	got := fieldMap(decodeFields(t, "BASIC_CONSTRAINTS", []byte{0x30, 0x00}))
	require.Equal(t, map[string]interface{}{
		"EXTENSION_BASIC_CONSTRAINTS_CA":          false,
		"EXTENSION_BASIC_CONSTRAINTS_PATH_LENGTH": nil,
	}, got)

	got = fieldMap(decodeFields(t, "BASIC_CONSTRAINTS", []byte{0x30, 0x06, 0x01, 0x01, 0xff, 0x02, 0x01, 0x00}))
	require.Equal(t, true, got["EXTENSION_BASIC_CONSTRAINTS_CA"])
	require.Equal(t, int64(0), got["EXTENSION_BASIC_CONSTRAINTS_PATH_LENGTH"])
}

func TestKeyUsage_EncipherDecipherRequireKeyAgreement(t *testing.T) {
	// digitalSignature and encipherOnly set, keyAgreement clear
	got := fieldMap(decodeFields(t, "KEY_USAGE", []byte{0x03, 0x02, 0x00, 0x81}))
	require.Len(t, got, 9)
	require.Equal(t, true, got["EXTENSION_KEY_USAGE_DIGITAL_SIGNATURE"])
	require.Equal(t, false, got["EXTENSION_KEY_USAGE_KEY_AGREEMENT"])
	require.Equal(t, false, got["EXTENSION_KEY_USAGE_ENCIPHER_ONLY"])
	require.Equal(t, false, got["EXTENSION_KEY_USAGE_DECIPHER_ONLY"])

	// keyAgreement and decipherOnly set
	got = fieldMap(decodeFields(t, "KEY_USAGE", []byte{0x03, 0x03, 0x07, 0x08, 0x80}))
	require.Equal(t, false, got["EXTENSION_KEY_USAGE_DIGITAL_SIGNATURE"])
	require.Equal(t, true, got["EXTENSION_KEY_USAGE_KEY_AGREEMENT"])
	require.Equal(t, false, got["EXTENSION_KEY_USAGE_ENCIPHER_ONLY"])
	require.Equal(t, true, got["EXTENSION_KEY_USAGE_DECIPHER_ONLY"])
}

func TestAlternativeNames(t *testing.T) {
	der := []byte{0x30, 0x13,
		0x82, 0x0b, 'e', 'x', 'a', 'm', 'p', 'l', 'e', '.', 'c', 'o', 'm',
		0x87, 0x04, 192, 0, 2, 1,
	}
	fields := decodeFields(t, "SUBJECT_ALTERNATIVE_NAME", der)
	require.Equal(t, []table.Field{
		{Name: "EXTENSION_SUBJECT_ALTERNATIVE_NAME", Value: []string{"example.com", "192.0.2.1"}},
	}, fields)

	fields = decodeFields(t, "ISSUER_ALTERNATIVE_NAME", []byte{0x30, 0x05, 0x88, 0x03, 0x2a, 0x03, 0x04})
	require.Equal(t, []string{"1.2.3.4"}, fields[0].Value)
}

func TestExtendedKeyUsage(t *testing.T) {
	der := []byte{0x30, 0x0a, 0x06, 0x08, 0x2b, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x01}
	fields := decodeFields(t, "EXTENDED_KEY_USAGE", der)
	require.Len(t, fields, len(ExtendedKeyUsages))
	got := fieldMap(fields)
	require.Equal(t, true, got["EXTENSION_EXTENDED_KEY_USAGE_SERVER_AUTH"])
	require.Equal(t, false, got["EXTENSION_EXTENDED_KEY_USAGE_CLIENT_AUTH"])
}

func TestCountsAndIntegers(t *testing.T) {
	// two empty DistributionPoint sequences
	fields := decodeFields(t, "CRL_DISTRIBUTION_POINTS", []byte{0x30, 0x04, 0x30, 0x00, 0x30, 0x00})
	require.Equal(t, []table.Field{{Name: "EXTENSION_CRL_DISTRIBUTION_POINTS_COUNT", Value: int64(2)}}, fields)

	fields = decodeFields(t, "CRL_NUMBER", []byte{0x02, 0x01, 0x05})
	require.Equal(t, int64(5), fields[0].Value)

	huge := []byte{0x02, 0x09, 0x01, 0, 0, 0, 0, 0, 0, 0, 0}
	fields = decodeFields(t, "CRL_NUMBER", huge)
	require.Equal(t, "18446744073709551616", fields[0].Value)

	fields = decodeFields(t, "INHIBIT_ANY_POLICY", []byte{0x02, 0x01, 0x00})
	require.Equal(t, int64(0), fields[0].Value)
}

func TestPolicyConstraints(t *testing.T) {
	got := fieldMap(decodeFields(t, "POLICY_CONSTRAINTS", []byte{0x30, 0x03, 0x80, 0x01, 0x02}))
	require.Equal(t, map[string]interface{}{
		"EXTENSION_POLICY_CONSTRAINTS_REQUIRE_EXPLICIT_POLICY": int64(2),
		"EXTENSION_POLICY_CONSTRAINTS_INHIBIT_POLICY_MAPPING":  nil,
	}, got)
}

func TestPresenceMarkers(t *testing.T) {
	require.Equal(t, []table.Field{{Name: "EXTENSION_PRECERT_POISON", Value: true}},
		decodeFields(t, "PRECERT_POISON", []byte{0x05, 0x00}))
	require.Equal(t, []table.Field{{Name: "EXTENSION_OCSP_NO_CHECK", Value: true}},
		decodeFields(t, "OCSP_NO_CHECK", nil))
	require.Equal(t, []table.Field{{Name: "EXTENSION_TLS_FEATURE", Value: true}},
		decodeFields(t, "TLS_FEATURE", []byte{0x30, 0x03, 0x02, 0x01, 0x05}))
}

func TestNoFieldExtensions(t *testing.T) {
	require.Empty(t, decodeFields(t, "SUBJECT_KEY_IDENTIFIER", []byte{0x04, 0x02, 0xab, 0xcd}))
	require.Empty(t, decodeFields(t, "POLICY_MAPPINGS", []byte{0x30, 0x00}))
	require.Empty(t, decodeFields(t, "SUBJECT_DIRECTORY_ATTRIBUTES", []byte{0xde, 0xad}))
}

func TestMalformedValueYieldsUnknown(t *testing.T) {
	id := extensionByName(t, "BASIC_CONSTRAINTS")
	v, err := DecodeExtension(id, []byte{0x04, 0x00})
	require.Error(t, err)
	require.Nil(t, v)
	require.Equal(t, []table.Field{{Name: "EXTENSION_BASIC_CONSTRAINTS", Value: Unknown}}, ExtensionFields(id.Column(), v))

	_, err = DecodeExtension(ExtensionID{Name: "MADE_UP"}, nil)
	require.Error(t, err)

	// trailing data
	_, err = DecodeExtension(extensionByName(t, "PRECERT_POISON"), []byte{0x05, 0x00, 0x00})
	require.Error(t, err)
}
