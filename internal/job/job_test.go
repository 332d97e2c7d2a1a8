package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobLoadAndValidate(t *testing.T) {
	const minimal = `{
		"version": "0.1.0",
		"inputs": ["exports/"],
		"options": {
			"extract": {"workers": 4},
			"output": {
				"base_name": "certs.csv",
				"transformer": "csv",
				"sink": "disk",
				"sink_options": {"path": "out"}
			}
		}
	}`
	job, err := Load(strings.NewReader(minimal))
	require.NoError(t, err)
	require.Equal(t, "0.1.0", job.Version)
	require.Equal(t, []string{"exports/"}, job.Inputs)
	require.Equal(t, "cert_fields", job.Options.Extract.Extractor)
	require.Equal(t, ";", job.Options.Input.ChainDelimiter)
	require.Equal(t, "out", job.Options.Output.SinkOptions["path"])
}

func TestJobLoad_MissingFields(t *testing.T) {
	const missing = `{
		"options": {
			"extract": {"workers": -1},
			"output": {}
		}
	}`
	_, err := Load(strings.NewReader(missing))
	require.Error(t, err)
	for _, f := range []string{"version", "options.extract.workers", "options.output.base_name", "options.output.transformer", "options.output.sink"} {
		require.Contains(t, err.Error(), f)
	}
}

func TestJobLoad_BadJSON(t *testing.T) {
	_, err := Load(strings.NewReader("{"))
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1","options":{"output":{"base_name":"x","transformer":"jsonl","sink":"stdout"}}}`), 0o644))
	job, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "jsonl", job.Options.Output.Transformer)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
