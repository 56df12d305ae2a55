package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/toolocean/internal/cache"
	"github.com/hyperifyio/toolocean/internal/extract"
	"github.com/hyperifyio/toolocean/internal/jsonrepair"
	"github.com/hyperifyio/toolocean/internal/validate"
)

// ErrUnrecoverable is returned when at least one input could not be turned
// into valid JSON and needs manual correction.
var ErrUnrecoverable = errors.New("unrecoverable input")

// ErrSchemaMismatch is returned when a repaired document does not conform to
// the configured schema.
var ErrSchemaMismatch = errors.New("schema mismatch")

type App struct {
	cfg    Config
	engine *jsonrepair.Engine
	schema *validate.Schema
	cache  *cache.ResultCache

	// Stdin and Stdout back the "-" input and single-input output.
	Stdin  io.Reader
	Stdout io.Writer
}

// Outcome is the per-input result of a run.
type Outcome struct {
	Input        string
	Output       string
	InputSHA256  string
	OutputSHA256 string
	Result       jsonrepair.Result
	Cached       bool
	Violations   []validate.FieldError
}

// Summary aggregates the outcomes of a run, in input order.
type Summary struct {
	RunID          string
	Outcomes       []Outcome
	Repaired       int
	AlreadyValid   int
	Unrecoverable  int
	SchemaMismatch int
	Cached         int
}

func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	engine, err := jsonrepair.New(jsonrepair.Options{
		Indent:        cfg.Indent,
		MatchTimeout:  cfg.MatchTimeout,
		MaxInputBytes: cfg.MaxInputBytes,
		Disabled:      cfg.Disabled,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	a := &App{cfg: cfg, engine: engine, Stdin: os.Stdin, Stdout: os.Stdout}

	if cfg.SchemaPath != "" {
		s, err := validate.LoadSchema(cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		a.schema = s
	}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			n, err := cache.ClearDir(cfg.CacheDir)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			} else {
				log.Debug().Int("removed", n).Str("dir", cfg.CacheDir).Msg("cleared cache")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Dur("max_age", cfg.CacheMaxAge).Msg("purged stale cache entries")
			}
		}
		a.cache = &cache.ResultCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	log.Debug().
		Str("fingerprint", engine.Fingerprint()).
		Int("rules", len(engine.Rules())).
		Int("inputs", len(cfg.Inputs)).
		Msg("engine ready")
	return a, nil
}

// Run repairs every configured input. A single input goes to the output path
// or Stdout; several inputs are repaired concurrently and written next to
// their source or into the output directory. Per-input failures do not stop
// the batch; they are reported through the returned error once all inputs
// are done. I/O errors abort the run.
func (a *App) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	inputs := a.cfg.Inputs
	single := len(inputs) == 1
	outcomes := make([]Outcome, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			oc, err := a.processOne(gctx, in, single)
			if err != nil {
				return err
			}
			outcomes[i] = oc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum := summarize(outcomes)
	sum.RunID = uuid.NewString()

	if a.cfg.ReportPath != "" {
		meta := reportMeta{
			RunID:         sum.RunID,
			EngineVersion: jsonrepair.Version,
			Fingerprint:   a.engine.Fingerprint(),
			Rules:         ruleNames(a.engine.Rules()),
			BuildVersion:  BuildVersion,
			BuildCommit:   BuildCommit,
			Inputs:        len(inputs),
			GeneratedAt:   time.Now().UTC(),
			DurationMS:    time.Since(started).Milliseconds(),
		}
		if a.schema != nil {
			meta.Schema = a.schema.Source()
		}
		if err := writeReport(a.cfg.ReportPath, meta, buildReportEntries(outcomes)); err != nil {
			return sum, fmt.Errorf("write report: %w", err)
		}
	}

	evt := log.Debug()
	if !single {
		evt = log.Info()
	}
	evt.Int("inputs", len(inputs)).
		Int("repaired", sum.Repaired).
		Int("already_valid", sum.AlreadyValid).
		Int("unrecoverable", sum.Unrecoverable).
		Int("schema_mismatch", sum.SchemaMismatch).
		Int("cached", sum.Cached).
		Dur("elapsed", time.Since(started)).
		Msg("repair finished")

	switch {
	case sum.Unrecoverable > 0:
		return sum, fmt.Errorf("%d of %d inputs: %w", sum.Unrecoverable, len(inputs), ErrUnrecoverable)
	case sum.SchemaMismatch > 0:
		return sum, fmt.Errorf("%d of %d inputs: %w", sum.SchemaMismatch, len(inputs), ErrSchemaMismatch)
	}
	return sum, nil
}

func (a *App) processOne(ctx context.Context, input string, single bool) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	name := displayName(input)
	raw, err := a.read(input)
	if err != nil {
		return Outcome{}, fmt.Errorf("read %s: %w", name, err)
	}
	text, err := extract.Decode(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", name, err)
	}
	if a.cfg.Extract {
		text = extract.Candidate(text)
	}

	oc := Outcome{Input: name, InputSHA256: computeSHA256Hex(text)}
	oc.Result, oc.Cached = a.repair(ctx, text)
	logger := log.With().Str("input", name).Logger()

	if !oc.Result.Succeeded {
		logger.Error().
			Str("reason", oc.Result.Reason).
			Strs("rules", oc.Result.AppliedRules).
			Msg("manual correction required")
		return oc, nil
	}
	if a.schema != nil {
		if err := a.schema.Validate(oc.Result.FixedText); err != nil {
			var ve *validate.ValidationError
			if !errors.As(err, &ve) {
				return oc, fmt.Errorf("%s: %w", name, err)
			}
			oc.Violations = ve.Errors
			logger.Error().Int("violations", len(ve.Errors)).Msg(ve.Error())
			return oc, nil
		}
	}

	dest := outputPath(a.cfg, input, single)
	if err := a.write(dest, oc.Result.FixedText); err != nil {
		return oc, fmt.Errorf("write %s: %w", name, err)
	}
	oc.Output = dest
	oc.OutputSHA256 = computeSHA256Hex(oc.Result.FixedText)
	logger.Debug().
		Bool("already_valid", oc.Result.AlreadyValid).
		Bool("cached", oc.Cached).
		Strs("rules", oc.Result.AppliedRules).
		Str("output", dest).
		Msg("repaired")
	return oc, nil
}

// repair consults the cache before running the engine. Cache errors only
// cost the shortcut.
func (a *App) repair(ctx context.Context, text string) (jsonrepair.Result, bool) {
	if a.cache == nil {
		return a.engine.Repair(text), false
	}
	key := cache.Key(a.engine.Fingerprint(), text)
	if res, ok, err := a.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("cache read failed")
	} else if ok {
		return res, true
	}
	res := a.engine.Repair(text)
	// A failure may be a load-dependent match timeout, so only successes are stored.
	if res.Succeeded {
		if err := a.cache.Save(ctx, key, res); err != nil {
			log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return res, false
}

func (a *App) read(input string) ([]byte, error) {
	if input == StdinName {
		return io.ReadAll(a.Stdin)
	}
	return os.ReadFile(input)
}

// write stores text at dest, or prints it when dest is empty.
func (a *App) write(dest, text string) error {
	if dest == "" {
		_, err := io.WriteString(a.Stdout, text+"\n")
		return err
	}
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(dest, []byte(text+"\n"), 0o644)
}

// outputPath returns where the repaired document for input goes. An empty
// result means Stdout.
func outputPath(cfg Config, input string, single bool) string {
	if cfg.OutputPath != "" {
		return cfg.OutputPath
	}
	if cfg.OutputDir != "" {
		return filepath.Join(cfg.OutputDir, outputBase(input))
	}
	if single {
		return ""
	}
	return siblingPath(input)
}

// outputBase is the file name an input gets inside the output directory.
func outputBase(input string) string {
	if input == StdinName {
		return "stdin.json"
	}
	return filepath.Base(input)
}

// siblingPath maps "dir/name.ext" to "dir/name.repaired.json".
func siblingPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".repaired.json"
}

func displayName(input string) string {
	if input == StdinName {
		return "<stdin>"
	}
	return input
}

func summarize(outcomes []Outcome) Summary {
	sum := Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Cached {
			sum.Cached++
		}
		switch {
		case !o.Result.Succeeded:
			sum.Unrecoverable++
		case len(o.Violations) > 0:
			sum.SchemaMismatch++
		case o.Result.AlreadyValid:
			sum.AlreadyValid++
		default:
			sum.Repaired++
		}
	}
	return sum
}

func ruleNames(metas []jsonrepair.RuleMeta) []string {
	out := make([]string, 0, len(metas))
	for _, m := range metas {
		out = append(out, m.Name)
	}
	return out
}
