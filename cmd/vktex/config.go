package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// config holds defaults for inspect. Flags given on the command line win.
type config struct {
	Threads int    `yaml:"threads"`
	Layout  string `yaml:"layout"`
	Dump    string `yaml:"dump"`
	Report  string `yaml:"report"`
	Backend string `yaml:"backend"`
	Exact   bool   `yaml:"exact_fallback"`
}

// loadConfig reads path. A missing file is only an error when required.
func loadConfig(path string, required bool) (config, error) {
	var c config
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return c, nil
		}
		return c, fmt.Errorf("read config %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("parse config %q: %w", path, err)
	}
	return c, nil
}

// apply copies config values into the flag targets that were not set on
// the command line.
func (c config) apply(fl *pflag.FlagSet, cmd *inspectCmd) {
	if c.Threads > 0 && !fl.Changed("threads") {
		cmd.threads = c.Threads
	}
	if c.Layout != "" && !fl.Changed("layout") {
		cmd.layout = c.Layout
	}
	if c.Dump != "" && !fl.Changed("dump") {
		cmd.dump = c.Dump
	}
	if c.Report != "" && !fl.Changed("report") {
		cmd.report = c.Report
	}
	if c.Backend != "" && !fl.Changed("backend") {
		cmd.backend = c.Backend
	}
	if c.Exact && !fl.Changed("exact-fallback") {
		cmd.exact = true
	}
}
