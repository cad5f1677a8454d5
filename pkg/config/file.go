package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the on-disk blockc.toml layout
type fileConfig struct {
	Target          string          `toml:"target,omitempty"`
	Protocol        string          `toml:"protocol,omitempty"`
	Indent          *int            `toml:"indent,omitempty"`
	LoopTrap        string          `toml:"loop_trap,omitempty"`
	StatementPrefix string          `toml:"statement_prefix,omitempty"`
	ReservedWords   []string        `toml:"reserved_words,omitempty"`
	Features        map[string]bool `toml:"features,omitempty"`
	Warnings        map[string]bool `toml:"warnings,omitempty"`
}

// LoadFile reads a TOML configuration file and applies it on top of c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := c.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Load applies TOML configuration read from r. Unknown keys are rejected
func (c *Config) Load(r io.Reader) error {
	var fc fileConfig
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Target != "" {
		if err := c.SetTarget(fc.Target); err != nil {
			return err
		}
	}
	if fc.Protocol != "" {
		if err := c.SetProtocol(fc.Protocol); err != nil {
			return err
		}
	}
	if fc.Indent != nil {
		if *fc.Indent < 0 {
			return fmt.Errorf("indent must not be negative, got %d", *fc.Indent)
		}
		c.Indent = *fc.Indent
	}
	if fc.LoopTrap != "" {
		c.LoopTrap = fc.LoopTrap
	}
	if fc.StatementPrefix != "" {
		c.StatementPrefix = fc.StatementPrefix
	}
	c.ReservedWords = append(c.ReservedWords, fc.ReservedWords...)

	// Sorted so that "all" and the individual names apply in a stable order
	for _, name := range sortedKeys(fc.Warnings) {
		if err := c.applyFlag(flagFor("W", name, fc.Warnings[name])); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(fc.Features) {
		if err := c.applyFlag(flagFor("F", name, fc.Features[name])); err != nil {
			return err
		}
	}
	return nil
}

// Marshal renders the effective configuration as TOML
func (c *Config) Marshal() ([]byte, error) {
	indent := c.Indent
	fc := fileConfig{
		Target:          c.Target,
		Protocol:        c.Protocol(),
		Indent:          &indent,
		LoopTrap:        c.LoopTrap,
		StatementPrefix: c.StatementPrefix,
		ReservedWords:   c.ReservedWords,
		Features:        make(map[string]bool),
		Warnings:        make(map[string]bool),
	}
	for _, info := range c.Features {
		fc.Features[info.Name] = info.Enabled
	}
	for _, info := range c.Warnings {
		fc.Warnings[info.Name] = info.Enabled
	}
	data, err := toml.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
	}
	return data, nil
}

func flagFor(prefix, name string, enabled bool) string {
	if enabled {
		return "-" + prefix + name
	}
	return "-" + prefix + "no-" + name
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		// "all" first so explicit entries override it
		if keys[i] == "all" || keys[j] == "all" {
			return keys[i] == "all"
		}
		return keys[i] < keys[j]
	})
	return keys
}
