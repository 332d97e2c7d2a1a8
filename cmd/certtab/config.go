package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chtzvt/certtab/internal/job"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type InputConfig struct {
	Compression    string `mapstructure:"compression"`
	ChainDelimiter string `mapstructure:"chain_delimiter"`
}

type ExtractConfig struct {
	Workers    int    `mapstructure:"workers"`
	Extractor  string `mapstructure:"extractor"`
	Extensions string `mapstructure:"extensions"`
}

type OutputConfig struct {
	Transformer   string                 `mapstructure:"transformer"`
	Sink          string                 `mapstructure:"sink"`
	SinkOptions   map[string]interface{} `mapstructure:"sink_options"`
	Compression   string                 `mapstructure:"compression"`
	ChunkRecords  int                    `mapstructure:"chunk_records"`
	ChunkBytes    int                    `mapstructure:"chunk_bytes"`
	Target        string                 `mapstructure:"target"`
	TargetOptions map[string]interface{} `mapstructure:"target_options"`
}

type SecretsConfig struct {
	Dir    string `mapstructure:"dir"`
	UseEnv bool   `mapstructure:"use_env"`
}

type CerttabConfig struct {
	Log     LogConfig     `mapstructure:"log"`
	Input   InputConfig   `mapstructure:"input"`
	Extract ExtractConfig `mapstructure:"extract"`
	Output  OutputConfig  `mapstructure:"output"`
	Secrets SecretsConfig `mapstructure:"secrets"`

	file string
}

func defaultSecretsDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "certtab")
	}
	return ".certtab"
}

func loadConfig(cfgFile string) (*CerttabConfig, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("certtab")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/certtab/")
	}

	v.SetEnvPrefix("CERTTAB") // env vars like CERTTAB_OUTPUT__SINK
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("input.chain_delimiter", job.DefaultChainDelimiter)
	v.SetDefault("extract.workers", 0)
	v.SetDefault("extract.extractor", "cert_fields")
	v.SetDefault("output.transformer", "csv")
	v.SetDefault("output.sink", "disk")
	v.SetDefault("output.compression", "none")
	v.SetDefault("secrets.dir", defaultSecretsDir())
	v.SetDefault("secrets.use_env", true)

	v.BindEnv("log.level")
	v.BindEnv("log.format")
	v.BindEnv("input.compression")
	v.BindEnv("input.chain_delimiter")
	v.BindEnv("extract.workers")
	v.BindEnv("extract.extensions")
	v.BindEnv("output.transformer")
	v.BindEnv("output.sink")
	v.BindEnv("output.compression")
	v.BindEnv("output.chunk_records")
	v.BindEnv("output.chunk_bytes")
	v.BindEnv("output.target")
	v.BindEnv("secrets.dir")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c CerttabConfig
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	c.file = v.ConfigFileUsed()
	return &c, nil
}

// JobSpec builds the job for one extract or combine run writing under out.
func (c *CerttabConfig) JobSpec(inputs []string, out string) *job.JobSpec {
	sinkOpts := map[string]interface{}{}
	for k, v := range c.Output.SinkOptions {
		sinkOpts[k] = v
	}
	if _, ok := sinkOpts["compression"]; !ok && c.Output.Compression != "" {
		sinkOpts["compression"] = c.Output.Compression
	}
	if out != "" {
		if c.Output.Sink == "disk" {
			sinkOpts["path"] = out
		} else if _, ok := sinkOpts["prefix"]; !ok {
			sinkOpts["prefix"] = out
		}
	}

	var extractorOpts map[string]interface{}
	if c.Extract.Extensions != "" {
		extractorOpts = map[string]interface{}{"extensions": c.Extract.Extensions}
	}

	spec := &job.JobSpec{
		Version: version,
		Inputs:  inputs,
		Options: job.JobOptions{
			Input: job.InputConfig{
				Compression:    c.Input.Compression,
				ChainDelimiter: c.Input.ChainDelimiter,
			},
			Extract: job.ExtractConfig{
				Workers:          c.Extract.Workers,
				Extractor:        c.Extract.Extractor,
				ExtractorOptions: extractorOpts,
			},
			Output: job.OutputOptions{
				BaseName:      "certificates",
				ChunkRecords:  c.Output.ChunkRecords,
				ChunkBytes:    c.Output.ChunkBytes,
				Transformer:   c.Output.Transformer,
				Sink:          c.Output.Sink,
				SinkOptions:   sinkOpts,
				Target:        c.Output.Target,
				TargetOptions: c.Output.TargetOptions,
			},
		},
	}
	spec.ApplyDefaults()
	return spec
}
