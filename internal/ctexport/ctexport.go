// Package ctexport reads the headerless CSV exports of CT log entries that
// certtab consumes.
package ctexport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chtzvt/certtab/internal/compression"
	"github.com/chtzvt/certtab/internal/table"
)

// Columns is the fixed column layout of an export file.
var Columns = []string{
	"log_url",
	"id",
	"hash",
	"certificate_base64",
	"certificate_chain_base64",
	"domains",
	"ts1",
	"ts2",
}

var ErrNotFound = errors.New("entry not found")

// Entry is one export row.
type Entry struct {
	LogURL            string
	ID                string
	Hash              string
	CertificateBase64 string
	ChainBase64       string
	Domains           string
	TS1               string
	TS2               string

	// Record is the 1-based position of the row in its file.
	Record int
}

// Chain splits the chain column on delim, dropping empty elements.
func (e *Entry) Chain(delim string) []string {
	if delim == "" {
		delim = ";"
	}
	var out []string
	for _, c := range strings.Split(e.ChainBase64, delim) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Raw returns the certificate bytes the entry carries, untouched.
func (e *Entry) Raw() table.RawCertificate {
	return table.RawCertificate{CertificateBase64: e.CertificateBase64, ChainBase64: e.ChainBase64}
}

// Reader streams entries from an export.
type Reader struct {
	csv *csv.Reader
	n   int
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Read returns the next entry, or io.EOF.
func (r *Reader) Read() (*Entry, error) {
	rec, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("ctexport: record %d: %w", r.n+1, err)
	}
	r.n++
	return &Entry{
		LogURL:            rec[0],
		ID:                strings.TrimSpace(rec[1]),
		Hash:              rec[2],
		CertificateBase64: strings.TrimSpace(rec[3]),
		ChainBase64:       rec[4],
		Domains:           rec[5],
		TS1:               rec[6],
		TS2:               rec[7],
		Record:            r.n,
	}, nil
}

// ReadAll reads every remaining entry.
func (r *Reader) ReadAll() ([]*Entry, error) {
	var out []*Entry
	for {
		e, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

// File is an export opened from disk.
type File struct {
	*Reader
	Path string

	dec io.Closer
	f   *os.File
}

// Open opens an export file. An empty compression guesses from the path.
func Open(path, comp string) (*File, error) {
	if comp == "" {
		comp = compression.FromPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := compression.NewReader(f, comp)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ctexport: %s: %w", path, err)
	}
	return &File{Reader: NewReader(dec), Path: path, dec: dec, f: f}, nil
}

func (f *File) Close() error {
	err1 := f.dec.Close()
	err2 := f.f.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// IsInputFile reports whether a file name looks like an export: not hidden,
// and a csv or a compressed file.
func IsInputFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if compression.FromPath(base) != "none" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(base), ".csv")
}

// DiscoverInputs expands path into the sorted list of export files it names.
// A file path is returned as is if it looks like an export.
func DiscoverInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if IsInputFile(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var out []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsInputFile(d.Name()) {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// Find scans r for the entry with the given id.
func Find(r *Reader, id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	for {
		e, err := r.Read()
		if err == io.EOF {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if e.ID == id {
			return e, nil
		}
	}
}
