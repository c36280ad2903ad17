/* Apache v2 license
 * Copyright (C) 2019 Intel Corporation
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings a config file may provide. Command line flags
// override them.
type Config struct {
	// URIStem is the scheme and domain (and optional path) of built links.
	URIStem string `yaml:"uri_stem"`

	// UseOptimisations selects the optimisation table when compressing.
	UseOptimisations bool `yaml:"use_optimisations"`

	// CompressNonGS1 packs non-GS1 query pairs into compressed links.
	CompressNonGS1 bool `yaml:"compress_non_gs1"`

	// Output is one of text, json, yaml or cbor.
	Output string `yaml:"output"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		URIStem:          "https://id.gs1.org",
		UseOptimisations: true,
		Output:           "text",
		LogLevel:         "error",
	}
}

// loadConfig reads a YAML config file over the defaults. Unknown keys are
// rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "unable to read config")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "unable to parse config %s", path)
	}
	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.Output {
	case "text", "json", "yaml", "cbor":
	default:
		return errors.Errorf("output must be text, json, yaml or cbor, not %q", cfg.Output)
	}
	if _, err := cfg.level(); err != nil {
		return err
	}
	return nil
}

func (cfg Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return level, errors.Errorf("unknown log level %q", cfg.LogLevel)
	}
	return level, nil
}
