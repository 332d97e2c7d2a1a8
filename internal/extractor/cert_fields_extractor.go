package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/table"
)

/*
CertFieldsExtractor maps one certificate to a flat record: version, validity,
issuer and subject name attributes, signature algorithm and one or more
fields per recognized extension.

It can be configured in a JobSpec via the following options:

{
	"extractor": "cert_fields",
	"extractor_options": {
		// Every extension except the listed ones:
		"extensions": "*,!precert_poison,!signed_certificate_timestamps"
	}
}

Disabled extensions are not decoded and produce no fields.
*/
type CertFieldsExtractor struct {
	Options CertFieldsExtractorOptions

	enabled map[string]bool
	columns []string
}

type CertFieldsExtractorOptions struct {
	Extensions string `json:"extensions"`
}

const CertFieldsExtractorDefaultExtensions = "*"

// Result is the outcome of mapping one certificate. Err is set when the
// certificate could not be decoded, in which case Record is empty.
type Result struct {
	Record table.Record
	Err    error
}

func NewCertFieldsExtractor(opts CertFieldsExtractorOptions) *CertFieldsExtractor {
	if opts.Extensions == "" {
		opts.Extensions = CertFieldsExtractorDefaultExtensions
	}
	names := make([]string, len(Extensions))
	for i, id := range Extensions {
		names[i] = id.Name
	}
	return &CertFieldsExtractor{
		Options: opts,
		enabled: parseFieldSpec(names, opts.Extensions),
		columns: canonicalColumns(),
	}
}

func (e *CertFieldsExtractor) WithOptions(opts map[string]interface{}) (Extractor, error) {
	o, err := parseOptions(opts)
	if err != nil {
		return nil, err
	}
	return NewCertFieldsExtractor(o), nil
}

func (e *CertFieldsExtractor) Columns() []string {
	return append([]string(nil), e.columns...)
}

func (e *CertFieldsExtractor) Extract(ctx *etl_core.Context, entry *ctexport.Entry) (table.Record, error) {
	if entry == nil {
		return nil, errors.New("got a nil entry")
	}
	res := e.MapCertificate(entry.CertificateBase64)
	return res.Record, res.Err
}

// MapCertificate decodes a base64 certificate body into a record. It never
// panics on bad input; failures are reported through Result.Err.
func (e *CertFieldsExtractor) MapCertificate(b64 string) Result {
	cert, err := DecodeCertificate(b64)
	if err != nil {
		return Result{Err: err}
	}

	issuer, err := ExtractNameAttributes(cert.Issuer)
	if err != nil {
		return Result{Err: fmt.Errorf("issuer: %w", err)}
	}
	subject, err := ExtractNameAttributes(cert.Subject)
	if err != nil {
		return Result{Err: fmt.Errorf("subject: %w", err)}
	}

	rec := make(table.Record, 0, len(e.columns))
	rec = append(rec,
		table.Field{Name: "version", Value: cert.Version},
		table.Field{Name: "not_valid_before", Value: cert.NotBefore},
		table.Field{Name: "not_valid_after", Value: cert.NotAfter},
		table.Field{Name: "validity_time", Value: cert.ValidityTime()},
	)
	for i, a := range NameAttributes {
		rec = append(rec, table.Field{Name: "issuer_" + a.Name, Value: issuer[i]})
	}
	for i, a := range NameAttributes {
		rec = append(rec, table.Field{Name: "subject_" + a.Name, Value: subject[i]})
	}

	var hash interface{}
	if cert.SignatureHash != "" {
		hash = cert.SignatureHash
	}
	rec = append(rec,
		table.Field{Name: "signature_hash_algorithm", Value: hash},
		table.Field{Name: "signature_algorithm", Value: cert.SignatureAlgorithm},
	)

	return Result{Record: append(rec, e.extensionFields(cert)...)}
}

func (e *CertFieldsExtractor) extensionFields(cert *Certificate) []table.Field {
	values := make([][]byte, len(Extensions))
	found := make([]bool, len(Extensions))
	for _, ext := range cert.Extensions {
		if i, ok := extensionIndex[ext.Id.String()]; ok {
			values[i] = ext.Value
			found[i] = true
		}
	}

	var fields []table.Field
	for i, id := range Extensions {
		if !found[i] || !e.enabled[strings.ToLower(id.Name)] {
			continue
		}
		v, err := DecodeExtension(id, values[i])
		if err != nil {
			v = nil
		}
		fields = append(fields, ExtensionFields(id.Column(), v)...)
	}
	return fields
}

// canonicalColumns lists every column MapCertificate can produce, in record
// order.
func canonicalColumns() []string {
	cols := []string{"version", "not_valid_before", "not_valid_after", "validity_time"}
	for _, a := range NameAttributes {
		cols = append(cols, "issuer_"+a.Name)
	}
	for _, a := range NameAttributes {
		cols = append(cols, "subject_"+a.Name)
	}
	cols = append(cols, "signature_hash_algorithm", "signature_algorithm")

	for _, id := range Extensions {
		base := id.Column()
		seen := map[string]bool{base: true}
		// The Unknown sentinel is always emitted under the bare name.
		cols = append(cols, base)
		for _, s := range id.Suffixes {
			if seen[base+s] {
				continue
			}
			seen[base+s] = true
			cols = append(cols, base+s)
		}
	}
	return cols
}

func parseOptions(opts map[string]interface{}) (CertFieldsExtractorOptions, error) {
	var o CertFieldsExtractorOptions
	for k, v := range opts {
		switch k {
		case "extensions":
			s, ok := v.(string)
			if !ok {
				return o, fmt.Errorf("cert_fields: option %q must be a string", k)
			}
			o.Extensions = s
		default:
			return o, fmt.Errorf("cert_fields: unknown option %q", k)
		}
	}
	return o, nil
}

// parseFieldSpec parses a spec string like "*,!foo,bar" into a map of field keys to include (true) or exclude (false).
func parseFieldSpec(allFields []string, spec string) map[string]bool {
	fields := map[string]bool{}
	if spec == "" {
		return fields
	}
	normalize := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	specs := strings.Split(spec, ",")
	includeAll := false
	for _, s := range specs {
		if normalize(s) == "*" {
			includeAll = true
		}
	}
	for _, s := range specs {
		sn := normalize(s)
		if sn == "*" || sn == "" {
			continue
		}
		if sn[0] == '!' {
			fields[sn[1:]] = false
		} else {
			fields[sn] = true
		}
	}
	if includeAll {
		for _, f := range allFields {
			fn := normalize(f)
			if _, ok := fields[fn]; !ok {
				fields[fn] = true
			}
		}
	}
	return fields
}

func init() {
	Register("cert_fields", NewCertFieldsExtractor(CertFieldsExtractorOptions{}))
}
