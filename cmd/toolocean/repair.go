package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/toolocean/internal/app"
)

type repairFlags struct {
	output        string
	outDir        string
	report        string
	extract       bool
	schema        string
	indent        string
	matchTimeout  time.Duration
	maxInputBytes int
	disable       []string
	concurrency   int
	cacheDir      string
	cacheMaxAge   time.Duration
	cacheClear    bool
	cacheStrict   bool
}

func newRepairCmd(root *rootOptions) *cobra.Command {
	rf := &repairFlags{}
	cmd := &cobra.Command{
		Use:   "repair [files...]",
		Short: "Repair JSON from files or stdin",
		Long:  "Repairs each input and writes pretty-printed JSON. With no files, or \"-\", reads stdin and writes stdout. Several files are repaired concurrently and written next to their source as <name>.repaired.json, or into --out-dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, root, rf, args)
			if err != nil {
				return err
			}
			if cfg.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			a.Stdin = cmd.InOrStdin()
			a.Stdout = cmd.OutOrStdout()
			_, err = a.Run(cmd.Context())
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&rf.output, "output", "o", "", "Output file for a single input (default stdout)")
	f.StringVar(&rf.outDir, "out-dir", "", "Directory for repaired files")
	f.StringVar(&rf.report, "report", "", "Write a JSON run report to this path")
	f.BoolVar(&rf.extract, "extract", false, "Extract the JSON candidate from surrounding prose, Markdown fences or HTML")
	f.StringVar(&rf.schema, "schema", "", "JSON Schema file the repaired output must satisfy")
	f.StringVar(&rf.indent, "indent", app.DefaultIndent, `Indent per level (spaces or tabs; \t accepted)`)
	f.DurationVar(&rf.matchTimeout, "match-timeout", app.DefaultMatchTimeout, "Per-rule regex timeout; negative disables")
	f.IntVar(&rf.maxInputBytes, "max-input-bytes", 0, "Reject inputs larger than this; 0 disables")
	f.StringSliceVar(&rf.disable, "disable", nil, "Comma-separated rule names to skip")
	f.IntVarP(&rf.concurrency, "concurrency", "j", app.DefaultConcurrency, "Inputs repaired in parallel")
	f.StringVar(&rf.cacheDir, "cache.dir", "", "Result cache directory; empty disables caching")
	f.DurationVar(&rf.cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before the run; 0 disables")
	f.BoolVar(&rf.cacheClear, "cache.clear", false, "Clear the cache directory before the run")
	f.BoolVar(&rf.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	return cmd
}

// layeredConfig applies the config file and then the environment over the
// defaults. Commands put their explicitly set flags on top.
func layeredConfig(root *rootOptions) (app.Config, error) {
	cfg := app.DefaultConfig()
	if root.configPath != "" {
		fc, err := app.LoadConfigFile(root.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
		if err := app.ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
	}
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return cfg, nil
}

// buildConfig layers defaults, config file, environment and explicitly set
// flags, in increasing precedence.
func buildConfig(cmd *cobra.Command, root *rootOptions, rf *repairFlags, args []string) (app.Config, error) {
	cfg, err := layeredConfig(root)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputPath = rf.output
	}
	if f.Changed("out-dir") {
		cfg.OutputDir = rf.outDir
	}
	if f.Changed("report") {
		cfg.ReportPath = rf.report
	}
	if f.Changed("extract") {
		cfg.Extract = rf.extract
	}
	if f.Changed("schema") {
		cfg.SchemaPath = rf.schema
	}
	if f.Changed("indent") {
		cfg.Indent = app.UnescapeIndent(rf.indent)
	}
	if f.Changed("match-timeout") {
		cfg.MatchTimeout = rf.matchTimeout
	}
	if f.Changed("max-input-bytes") {
		cfg.MaxInputBytes = rf.maxInputBytes
	}
	if f.Changed("disable") {
		cfg.Disabled = rf.disable
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = rf.concurrency
	}
	if f.Changed("cache.dir") {
		cfg.CacheDir = rf.cacheDir
	}
	if f.Changed("cache.maxAge") {
		cfg.CacheMaxAge = rf.cacheMaxAge
	}
	if f.Changed("cache.clear") {
		cfg.CacheClear = rf.cacheClear
	}
	if f.Changed("cache.strictPerms") {
		cfg.CacheStrictPerms = rf.cacheStrict
	}
	if root.verbose {
		cfg.Verbose = true
	}
	if len(args) > 0 {
		cfg.Inputs = args
	}
	return cfg, nil
}
