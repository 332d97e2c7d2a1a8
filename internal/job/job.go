package job

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// JobSpec describes one extraction run: where the export records come from,
// how they are mapped and where the resulting tables go.
type JobSpec struct {
	Version string     `json:"version" yaml:"version"`
	Note    string     `json:"note,omitempty" yaml:"note"`
	Inputs  []string   `json:"inputs" yaml:"inputs"`
	Options JobOptions `json:"options" yaml:"options"`
}

type JobOptions struct {
	Input   InputConfig   `json:"input" yaml:"input"`
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Output  OutputOptions `json:"output" yaml:"output"`
}

type InputConfig struct {
	// Compression of input files; "" guesses from the file extension.
	Compression string `json:"compression,omitempty" yaml:"compression"`
	// ChainDelimiter separates certificates in the chain column.
	ChainDelimiter string `json:"chain_delimiter,omitempty" yaml:"chain_delimiter"`
}

type ExtractConfig struct {
	// Workers bounds the number of certificates mapped concurrently; 0 = NumCPU.
	Workers          int                    `json:"workers" yaml:"workers"`
	Extractor        string                 `json:"extractor" yaml:"extractor"`
	ExtractorOptions map[string]interface{} `json:"extractor_options,omitempty" yaml:"extractor_options"`
}

type OutputOptions struct {
	// BaseName names the main table; side tables get "-single-valued",
	// "-invalid" and "-manifest.json" suffixes.
	BaseName           string                 `json:"base_name" yaml:"base_name"`
	ChunkRecords       int                    `json:"chunk_records" yaml:"chunk_records"`
	ChunkBytes         int                    `json:"chunk_bytes" yaml:"chunk_bytes"`
	Transformer        string                 `json:"transformer" yaml:"transformer"`
	TransformerOptions map[string]interface{} `json:"transformer_options,omitempty" yaml:"transformer_options"`
	Sink               string                 `json:"sink" yaml:"sink"`
	SinkOptions        map[string]interface{} `json:"sink_options,omitempty" yaml:"sink_options"`
	// Target optionally loads the main table into a row store.
	Target        string                 `json:"target,omitempty" yaml:"target"`
	TargetOptions map[string]interface{} `json:"target_options,omitempty" yaml:"target_options"`
}

const DefaultChainDelimiter = ";"

func LoadFromFile(path string) (*JobSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*JobSpec, error) {
	var js JobSpec
	dec := json.NewDecoder(r)
	if err := dec.Decode(&js); err != nil {
		return nil, err
	}
	js.ApplyDefaults()
	if err := js.Validate(); err != nil {
		return nil, err
	}
	return &js, nil
}

// ApplyDefaults fills the optional fields left empty.
func (j *JobSpec) ApplyDefaults() {
	if j.Options.Input.ChainDelimiter == "" {
		j.Options.Input.ChainDelimiter = DefaultChainDelimiter
	}
	if j.Options.Extract.Extractor == "" {
		j.Options.Extract.Extractor = "cert_fields"
	}
}

func (j *JobSpec) Validate() error {
	var missing []string

	if j.Version == "" {
		missing = append(missing, "version")
	}
	if j.Options.Extract.Workers < 0 {
		missing = append(missing, "options.extract.workers")
	}
	if j.Options.Extract.Extractor == "" {
		missing = append(missing, "options.extract.extractor")
	}
	if j.Options.Output.BaseName == "" {
		missing = append(missing, "options.output.base_name")
	}
	if j.Options.Output.Transformer == "" {
		missing = append(missing, "options.output.transformer")
	}
	if j.Options.Output.Sink == "" {
		missing = append(missing, "options.output.sink")
	}
	if j.Options.Output.ChunkRecords < 0 || j.Options.Output.ChunkBytes < 0 {
		missing = append(missing, "options.output.chunk_*")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing/invalid job fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
