package config

import (
	"fmt"
	"strings"
)

type Feature int

const (
	FeatComments Feature = iota
	FeatLoopTrap
	FeatStatementPrefix
	FeatTaggedFlow
	FeatCount
)

type Warning int

const (
	WarnEmptySlot Warning = iota
	WarnNakedValue
	WarnUnknownVarType
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Flow protocols understood by the generators
const (
	ProtocolTagged   = "tagged"
	ProtocolSentinel = "sentinel"
)

// ProtocolUsage describes the protocol choice for command line help
const ProtocolUsage = "Select how break and return travel through chains: " +
	"tagged (default, self-contained) or sentinel (compatible with the legacy promiseTimes/promiseWhile runtime)."

const (
	DefaultTarget          = "ch"
	DefaultIndent          = 4
	DefaultLoopTrap        = "if (--loopTrapCount == 0) { throw \"Infinite loop in block \" + %1; }"
	DefaultStatementPrefix = "highlightBlock(%1);"
)

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning

	Target          string
	Indent          int
	LoopTrap        string
	StatementPrefix string
	ReservedWords   []string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:        make(map[Feature]Info),
		Warnings:        make(map[Warning]Info),
		FeatureMap:      make(map[string]Feature),
		WarningMap:      make(map[string]Warning),
		Target:          DefaultTarget,
		Indent:          DefaultIndent,
		LoopTrap:        DefaultLoopTrap,
		StatementPrefix: DefaultStatementPrefix,
	}

	features := map[Feature]Info{
		FeatComments:        {"comments", true, "Emit block comments as '//' lines."},
		FeatLoopTrap:        {"loop-trap", false, "Insert the loop trap snippet at the top of every loop body."},
		FeatStatementPrefix: {"statement-prefix", false, "Insert the statement prefix snippet at the top of every procedure body."},
		FeatTaggedFlow:      {"tagged-flow", true, "Thread break/return as tagged results. Disable for the legacy promiseTimes/promiseWhile runtime."},
	}

	warnings := map[Warning]Info{
		WarnEmptySlot:      {"empty-slot", false, "Warn when an empty slot is replaced by its default literal."},
		WarnNakedValue:     {"naked-value", true, "Warn about top-level value blocks that are not plugged into anything."},
		WarnUnknownVarType: {"unknown-var-type", true, "Warn about variables whose type tag is not recognized."},
		WarnExtra:          {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetTarget selects the output language. Names are matched case-insensitively
func (c *Config) SetTarget(target string) error {
	switch t := strings.ToLower(target); t {
	case "ch", "cpp", "js":
		c.Target = t
		return nil
	case "c++":
		c.Target = "cpp"
		return nil
	case "javascript":
		c.Target = "js"
		return nil
	}
	return fmt.Errorf("unsupported target '%s'. Supported: 'ch', 'cpp', 'js'", target)
}

// SetProtocol selects how break and return are threaded through generated chains
func (c *Config) SetProtocol(protocol string) error {
	switch protocol {
	case ProtocolTagged:
		c.SetFeature(FeatTaggedFlow, true)
	case ProtocolSentinel:
		c.SetFeature(FeatTaggedFlow, false)
	default:
		return fmt.Errorf("unsupported protocol '%s'. Supported: '%s', '%s'", protocol, ProtocolTagged, ProtocolSentinel)
	}
	return nil
}

func (c *Config) Protocol() string {
	if c.IsFeatureEnabled(FeatTaggedFlow) {
		return ProtocolTagged
	}
	return ProtocolSentinel
}

func (c *Config) IndentString() string { return strings.Repeat(" ", c.Indent) }

// applyFlag understands -W<name>, -Wno-<name>, -F<name>, -Fno-<name> and -Wall
func (c *Config) applyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
	default:
		return fmt.Errorf("malformed flag '%s'", flag)
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return nil
	}

	if isWarning {
		w, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(w, enable)
		return nil
	}
	f, ok := c.FeatureMap[name]
	if !ok {
		return fmt.Errorf("unknown feature '%s'", name)
	}
	c.SetFeature(f, enable)
	return nil
}

// ProcessFlags applies a space separated list of -W/-F flags. -Wall and -Wno-all go first
// so that individual flags can override them.
func (c *Config) ProcessFlags(flagStr string) error {
	fields := strings.Fields(flagStr)
	for _, f := range fields {
		if f == "-Wall" || f == "-Wno-all" {
			if err := c.applyFlag(f); err != nil {
				return err
			}
		}
	}
	for _, f := range fields {
		if f != "-Wall" && f != "-Wno-all" {
			if err := c.applyFlag(f); err != nil {
				return err
			}
		}
	}
	return nil
}
