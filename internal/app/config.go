package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// StdinName is the input name that reads from standard input.
const StdinName = "-"

// Config holds runtime configuration for the application.
type Config struct {
	// Inputs are file paths, or a single "-" for stdin.
	Inputs     []string `validate:"min=1,dive,required"`
	OutputPath string
	OutputDir  string
	ReportPath string

	// Extract narrows pasted text to the JSON candidate before repair.
	Extract    bool
	SchemaPath string

	// Repair engine
	Indent        string        `validate:"indent"`
	MatchTimeout  time.Duration
	MaxInputBytes int           `validate:"gte=0"`
	Disabled      []string      `validate:"dive,required"`
	Concurrency   int           `validate:"gte=1,lte=256"`

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration `validate:"gte=0"`
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults used when neither file, env nor flags supply a value.
const (
	DefaultIndent       = "  "
	DefaultMatchTimeout = 2 * time.Second
	DefaultConcurrency  = 4
)

// DefaultConfig returns the lowest-precedence configuration layer.
func DefaultConfig() Config {
	return Config{
		Inputs:       []string{StdinName},
		Indent:       DefaultIndent,
		MatchTimeout: DefaultMatchTimeout,
		Concurrency:  DefaultConcurrency,
	}
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("indent", func(fl validator.FieldLevel) bool {
		return strings.Trim(fl.Field().String(), " \t") == ""
	})
	return v
}

// ValidateConfig checks field constraints and the combinations of inputs and
// outputs the runner supports.
func ValidateConfig(cfg Config) error {
	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if len(cfg.Inputs) > 1 {
		for _, in := range cfg.Inputs {
			if in == StdinName {
				return errors.New("config: stdin input cannot be combined with other inputs")
			}
		}
		if strings.TrimSpace(cfg.OutputPath) != "" {
			return errors.New("config: output path requires a single input; use an output directory for batches")
		}
	}
	if strings.TrimSpace(cfg.OutputPath) != "" && strings.TrimSpace(cfg.OutputDir) != "" {
		return errors.New("config: output path and output directory are mutually exclusive")
	}
	if len(cfg.Inputs) > 1 {
		if err := checkOutputCollisions(cfg); err != nil {
			return err
		}
	}
	return nil
}

// checkOutputCollisions rejects batches in which two inputs would be written
// to the same file. The output directory keeps base names only and sibling
// outputs drop the extension, so distinct inputs can still collide.
func checkOutputCollisions(cfg Config) error {
	sources := make(map[string]bool, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		sources[filepath.Clean(in)] = true
	}
	seen := make(map[string]string, len(cfg.Inputs))
	for _, in := range cfg.Inputs {
		dest := filepath.Clean(outputPath(cfg, in, false))
		if sources[dest] {
			return fmt.Errorf("config: output for %q would overwrite input %q", in, dest)
		}
		if prev, ok := seen[dest]; ok {
			return fmt.Errorf("config: inputs %q and %q would both be written to %q", prev, in, dest)
		}
		seen[dest] = in
	}
	return nil
}
