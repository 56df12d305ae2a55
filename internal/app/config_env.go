package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set and non-empty. It runs after the config file layer and before flags.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("REPAIR_SCHEMA"); v != "" {
		cfg.SchemaPath = v
	}
	if v := os.Getenv("REPAIR_INDENT"); v != "" {
		cfg.Indent = UnescapeIndent(v)
	}
	if v := strings.TrimSpace(os.Getenv("REPAIR_DISABLE")); v != "" {
		cfg.Disabled = splitList(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CACHE_MAX_AGE", &cfg.CacheMaxAge},
		{"REPAIR_MATCH_TIMEOUT", &cfg.MatchTimeout},
	}
	for _, d := range durations {
		if s := strings.TrimSpace(os.Getenv(d.key)); s != "" {
			v, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REPAIR_MAX_INPUT_BYTES", &cfg.MaxInputBytes},
		{"REPAIR_CONCURRENCY", &cfg.Concurrency},
	}
	for _, n := range ints {
		if s := strings.TrimSpace(os.Getenv(n.key)); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%s: %w", n.key, err)
			}
			*n.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"VERBOSE", &cfg.Verbose},
		{"CACHE_CLEAR", &cfg.CacheClear},
		{"CACHE_STRICT_PERMS", &cfg.CacheStrictPerms},
		{"REPAIR_EXTRACT", &cfg.Extract},
	}
	for _, b := range bools {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(b.key))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*b.dst = true
			case "0", "false", "no", "off":
				*b.dst = false
			default:
				return fmt.Errorf("%s: invalid boolean %q", b.key, s)
			}
		}
	}
	return nil
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UnescapeIndent lets env files and flags spell a tab indent as \t.
func UnescapeIndent(s string) string {
	return strings.ReplaceAll(s, `\t`, "\t")
}
