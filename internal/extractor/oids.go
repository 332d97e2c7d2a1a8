package extractor

// Lookup tables below are sorted by name. The order is part of the output
// schema: column order is derived from it.

// NameAttribute is a recognized relative distinguished name attribute type.
type NameAttribute struct {
	Name string
	OID  string
}

var NameAttributes = []NameAttribute{
	{"BUSINESS_CATEGORY", "2.5.4.15"},
	{"COMMON_NAME", "2.5.4.3"},
	{"COUNTRY_NAME", "2.5.4.6"},
	{"DN_QUALIFIER", "2.5.4.46"},
	{"DOMAIN_COMPONENT", "0.9.2342.19200300.100.1.25"},
	{"EMAIL_ADDRESS", "1.2.840.113549.1.9.1"},
	{"GENERATION_QUALIFIER", "2.5.4.44"},
	{"GIVEN_NAME", "2.5.4.42"},
	{"INITIALS", "2.5.4.43"},
	{"INN", "1.2.643.3.131.1.1"},
	{"JURISDICTION_COUNTRY_NAME", "1.3.6.1.4.1.311.60.2.1.3"},
	{"JURISDICTION_LOCALITY_NAME", "1.3.6.1.4.1.311.60.2.1.1"},
	{"JURISDICTION_STATE_OR_PROVINCE_NAME", "1.3.6.1.4.1.311.60.2.1.2"},
	{"LOCALITY_NAME", "2.5.4.7"},
	{"OGRN", "1.2.643.100.1"},
	{"ORGANIZATIONAL_UNIT_NAME", "2.5.4.11"},
	{"ORGANIZATION_IDENTIFIER", "2.5.4.97"},
	{"ORGANIZATION_NAME", "2.5.4.10"},
	{"POSTAL_ADDRESS", "2.5.4.16"},
	{"POSTAL_CODE", "2.5.4.17"},
	{"PSEUDONYM", "2.5.4.65"},
	{"SERIAL_NUMBER", "2.5.4.5"},
	{"SNILS", "1.2.643.100.3"},
	{"STATE_OR_PROVINCE_NAME", "2.5.4.8"},
	{"STREET_ADDRESS", "2.5.4.9"},
	{"SURNAME", "2.5.4.4"},
	{"TITLE", "2.5.4.12"},
	{"UNSTRUCTURED_NAME", "1.2.840.113549.1.9.2"},
	{"USER_ID", "0.9.2342.19200300.100.1.1"},
	{"X500_UNIQUE_IDENTIFIER", "2.5.4.45"},
}

// ExtensionID is a recognized certificate extension. Suffixes lists the
// sub-field names the extension can produce; "" is the bare extension
// column.
type ExtensionID struct {
	Name     string
	OID      string
	Suffixes []string
}

// Column returns the base column name of the extension.
func (id ExtensionID) Column() string {
	return "EXTENSION_" + id.Name
}

var (
	bare                  = []string{""}
	basicConstraintsKeys  = []string{"_CA", "_PATH_LENGTH"}
	countKeys             = []string{"_COUNT"}
	policyConstraintsKeys = []string{"_REQUIRE_EXPLICIT_POLICY", "_INHIBIT_POLICY_MAPPING"}
	keyUsageKeys          = []string{
		"_DIGITAL_SIGNATURE",
		"_CONTENT_COMMITMENT",
		"_KEY_ENCIPHERMENT",
		"_DATA_ENCIPHERMENT",
		"_KEY_AGREEMENT",
		"_KEY_CERT_SIGN",
		"_CRL_SIGN",
		"_ENCIPHER_ONLY",
		"_DECIPHER_ONLY",
	}
)

var Extensions = []ExtensionID{
	{"AUTHORITY_INFORMATION_ACCESS", "1.3.6.1.5.5.7.1.1", nil},
	{"AUTHORITY_KEY_IDENTIFIER", "2.5.29.35", nil},
	{"BASIC_CONSTRAINTS", "2.5.29.19", basicConstraintsKeys},
	{"CERTIFICATE_POLICIES", "2.5.29.32", countKeys},
	{"CRL_DISTRIBUTION_POINTS", "2.5.29.31", countKeys},
	{"CRL_NUMBER", "2.5.29.20", bare},
	{"DELTA_CRL_INDICATOR", "2.5.29.27", bare},
	{"EXTENDED_KEY_USAGE", "2.5.29.37", ekuKeys()},
	{"FRESHEST_CRL", "2.5.29.46", bare},
	{"INHIBIT_ANY_POLICY", "2.5.29.54", bare},
	{"ISSUER_ALTERNATIVE_NAME", "2.5.29.18", bare},
	{"ISSUING_DISTRIBUTION_POINT", "2.5.29.28", bare},
	{"KEY_USAGE", "2.5.29.15", keyUsageKeys},
	{"NAME_CONSTRAINTS", "2.5.29.30", nil},
	{"OCSP_NO_CHECK", "1.3.6.1.5.5.7.48.1.5", bare},
	{"POLICY_CONSTRAINTS", "2.5.29.36", policyConstraintsKeys},
	{"POLICY_MAPPINGS", "2.5.29.33", nil},
	{"PRECERT_POISON", "1.3.6.1.4.1.11129.2.4.3", bare},
	{"PRECERT_SIGNED_CERTIFICATE_TIMESTAMPS", "1.3.6.1.4.1.11129.2.4.2", bare},
	{"SIGNED_CERTIFICATE_TIMESTAMPS", "1.3.6.1.4.1.11129.2.4.5", bare},
	{"SUBJECT_ALTERNATIVE_NAME", "2.5.29.17", bare},
	{"SUBJECT_DIRECTORY_ATTRIBUTES", "2.5.29.9", nil},
	{"SUBJECT_INFORMATION_ACCESS", "1.3.6.1.5.5.7.1.11", nil},
	{"SUBJECT_KEY_IDENTIFIER", "2.5.29.14", nil},
	{"TLS_FEATURE", "1.3.6.1.5.5.7.1.24", bare},
}

// ExtendedKeyUsagePurpose is a recognized extended key usage.
type ExtendedKeyUsagePurpose struct {
	Name string
	OID  string
}

var ExtendedKeyUsages = []ExtendedKeyUsagePurpose{
	{"ANY_EXTENDED_KEY_USAGE", "2.5.29.37.0"},
	{"CERTIFICATE_TRANSPARENCY", "1.3.6.1.4.1.11129.2.4.4"},
	{"CLIENT_AUTH", "1.3.6.1.5.5.7.3.2"},
	{"CODE_SIGNING", "1.3.6.1.5.5.7.3.3"},
	{"EMAIL_PROTECTION", "1.3.6.1.5.5.7.3.4"},
	{"IPSEC_IKE", "1.3.6.1.5.5.7.3.17"},
	{"KERBEROS_PKINIT_KDC", "1.3.6.1.5.2.3.5"},
	{"OCSP_SIGNING", "1.3.6.1.5.5.7.3.9"},
	{"SERVER_AUTH", "1.3.6.1.5.5.7.3.1"},
	{"SMARTCARD_LOGON", "1.3.6.1.4.1.311.20.2.2"},
	{"TIME_STAMPING", "1.3.6.1.5.5.7.3.8"},
}

func ekuKeys() []string {
	keys := make([]string, len(ExtendedKeyUsages))
	for i, u := range ExtendedKeyUsages {
		keys[i] = "_" + u.Name
	}
	return keys
}

type signatureAlgorithm struct {
	Name string
	Hash string // "" when the algorithm has no separate hash
}

var signatureAlgorithms = map[string]signatureAlgorithm{
	"1.2.840.10040.4.3":       {"DSA_WITH_SHA1", "sha1"},
	"2.16.840.1.101.3.4.3.1":  {"DSA_WITH_SHA224", "sha224"},
	"2.16.840.1.101.3.4.3.2":  {"DSA_WITH_SHA256", "sha256"},
	"2.16.840.1.101.3.4.3.3":  {"DSA_WITH_SHA384", "sha384"},
	"2.16.840.1.101.3.4.3.4":  {"DSA_WITH_SHA512", "sha512"},
	"1.2.840.10045.4.1":       {"ECDSA_WITH_SHA1", "sha1"},
	"1.2.840.10045.4.3.1":     {"ECDSA_WITH_SHA224", "sha224"},
	"1.2.840.10045.4.3.2":     {"ECDSA_WITH_SHA256", "sha256"},
	"1.2.840.10045.4.3.3":     {"ECDSA_WITH_SHA384", "sha384"},
	"1.2.840.10045.4.3.4":     {"ECDSA_WITH_SHA512", "sha512"},
	"2.16.840.1.101.3.4.3.9":  {"ECDSA_WITH_SHA3_224", "sha3-224"},
	"2.16.840.1.101.3.4.3.10": {"ECDSA_WITH_SHA3_256", "sha3-256"},
	"2.16.840.1.101.3.4.3.11": {"ECDSA_WITH_SHA3_384", "sha3-384"},
	"2.16.840.1.101.3.4.3.12": {"ECDSA_WITH_SHA3_512", "sha3-512"},
	"1.3.101.112":             {"ED25519", ""},
	"1.3.101.113":             {"ED448", ""},
	"1.2.643.7.1.1.3.2":       {"GOSTR3410_2012_WITH_3411_2012_256", ""},
	"1.2.643.7.1.1.3.3":       {"GOSTR3410_2012_WITH_3411_2012_512", ""},
	"1.2.643.2.2.3":           {"GOSTR3411_94_WITH_3410_2001", ""},
	"1.2.840.113549.1.1.10":   {"RSASSA_PSS", ""},
	"1.2.840.113549.1.1.4":    {"RSA_WITH_MD5", "md5"},
	"1.2.840.113549.1.1.5":    {"RSA_WITH_SHA1", "sha1"},
	"1.3.14.3.2.29":           {"_RSA_WITH_SHA1", "sha1"},
	"1.2.840.113549.1.1.14":   {"RSA_WITH_SHA224", "sha224"},
	"1.2.840.113549.1.1.11":   {"RSA_WITH_SHA256", "sha256"},
	"1.2.840.113549.1.1.12":   {"RSA_WITH_SHA384", "sha384"},
	"1.2.840.113549.1.1.13":   {"RSA_WITH_SHA512", "sha512"},
	"2.16.840.1.101.3.4.3.13": {"RSA_WITH_SHA3_224", "sha3-224"},
	"2.16.840.1.101.3.4.3.14": {"RSA_WITH_SHA3_256", "sha3-256"},
	"2.16.840.1.101.3.4.3.15": {"RSA_WITH_SHA3_384", "sha3-384"},
	"2.16.840.1.101.3.4.3.16": {"RSA_WITH_SHA3_512", "sha3-512"},
}

const oidRSASSAPSS = "1.2.840.113549.1.1.10"

// digest algorithms that may appear in RSASSA-PSS parameters
var hashAlgorithms = map[string]string{
	"1.3.14.3.2.26":           "sha1",
	"2.16.840.1.101.3.4.2.4":  "sha224",
	"2.16.840.1.101.3.4.2.1":  "sha256",
	"2.16.840.1.101.3.4.2.2":  "sha384",
	"2.16.840.1.101.3.4.2.3":  "sha512",
	"2.16.840.1.101.3.4.2.7":  "sha3-224",
	"2.16.840.1.101.3.4.2.8":  "sha3-256",
	"2.16.840.1.101.3.4.2.9":  "sha3-384",
	"2.16.840.1.101.3.4.2.10": "sha3-512",
}

var (
	nameAttributeIndex = indexNameAttributes()
	extensionIndex     = indexExtensions()
)

func indexNameAttributes() map[string]int {
	m := make(map[string]int, len(NameAttributes))
	for i, a := range NameAttributes {
		m[a.OID] = i
	}
	return m
}

func indexExtensions() map[string]int {
	m := make(map[string]int, len(Extensions))
	for i, e := range Extensions {
		m[e.OID] = i
	}
	return m
}
