package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xplshn/blockc/pkg/block"
	"github.com/xplshn/blockc/pkg/cli"
	"github.com/xplshn/blockc/pkg/codegen"
	"github.com/xplshn/blockc/pkg/config"
	"github.com/xplshn/blockc/pkg/util"
)

func main() {
	app := cli.NewApp("blockc")
	app.Synopsis = "[options] <workspace.json> ..."
	app.Description = "Generates Ch, C++ or JavaScript promise chains from visual block workspaces."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/blockc>"
	app.Since = 2025

	var (
		outPath    string
		target     string
		configPath string
		protocol   string
		reserved   []string
		dumpVars   bool
		dumpHash   bool
		dumpConfig bool
	)

	fs := app.FlagSet
	fs.String(&outPath, "output", "o", "", "Write the output to <path>. A directory when several workspaces are given.", "path")
	fs.String(&target, "target", "t", config.DefaultTarget, "Select the output language (ch, cpp, js).", "lang")
	fs.String(&configPath, "config", "c", "", "Read settings from a TOML file before applying flags.", "file")
	fs.String(&protocol, "protocol", "", config.ProtocolTagged, config.ProtocolUsage, "name")
	fs.List(&reserved, "reserve", "r", []string{}, "Never use <word> as a generated identifier.", "word")
	fs.Bool(&dumpVars, "dump-vars", "", false, "Print the variable table of each workspace and exit.")
	fs.Bool(&dumpHash, "dump-hash", "", false, "Print a fingerprint of each generated program instead of the program.")
	fs.Bool(&dumpConfig, "dump-config", "", false, "Print the effective configuration as TOML and exit.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputs []string) error {
		// The config file is the base layer; explicit flags override it
		if configPath != "" {
			if err := cfg.LoadFile(configPath); err != nil {
				return util.Report(configPath, err)
			}
		}
		cfg.ApplyFlagGroups(fs, warningFlags, featureFlags)
		if fs.Changed("target") || configPath == "" {
			if err := cfg.SetTarget(target); err != nil {
				return util.Report("blockc", err)
			}
		}
		if fs.Changed("protocol") {
			if err := cfg.SetProtocol(protocol); err != nil {
				return util.Report("blockc", err)
			}
		}
		cfg.ReservedWords = append(cfg.ReservedWords, reserved...)

		if dumpConfig {
			data, err := cfg.Marshal()
			if err != nil {
				return util.Report("blockc", err)
			}
			os.Stdout.Write(data)
			return nil
		}

		if len(inputs) == 0 {
			return util.Report("blockc", errors.New("no input workspaces specified"))
		}

		lang, err := codegen.LookupLanguage(cfg.Target)
		if err != nil {
			return util.Report("blockc", err)
		}
		gen := codegen.NewGenerator(cfg, lang)

		var failed bool
		for _, input := range inputs {
			if err := run(gen, lang, input, outPath, len(inputs) > 1, dumpVars, dumpHash); err != nil {
				util.Report(input, err)
				failed = true
			}
		}
		if failed {
			return errors.New("generation failed")
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return
		}
		os.Exit(1)
	}
}

// run generates one workspace and writes it where the flags say
func run(gen *codegen.Generator, lang *codegen.Language, input, outPath string, many, dumpVars, dumpHash bool) error {
	ws, err := block.Load(input)
	if err != nil {
		return err
	}

	if dumpVars {
		fmt.Printf("%s:\n", input)
		for _, v := range ws.AllVariables() {
			tag := v.Type
			if tag == "" {
				tag = "-"
			}
			fmt.Printf("  %-20s %-8s %s\n", v.Name, v.Kind, tag)
		}
		return nil
	}

	code, err := gen.Generate(ws)
	if err != nil {
		return err
	}

	if dumpHash {
		fmt.Printf("%s  %s\n", codegen.Fingerprint(code), input)
		return nil
	}

	dest := outPath
	if many && outPath != "" {
		if err := os.MkdirAll(outPath, 0o755); err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		dest = filepath.Join(outPath, base+"."+lang.Name)
	}
	if dest == "" || dest == "-" {
		_, err := os.Stdout.WriteString(code)
		return err
	}
	if err := os.WriteFile(dest, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	util.Info("wrote '%s' (%s)", dest, lang.Name)
	return nil
}
