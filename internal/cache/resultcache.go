// Package cache stores repair results on disk so repeated inputs skip the
// rule pipeline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/toolocean/internal/jsonrepair"
)

// ResultCache stores repair results keyed by engine fingerprint and input digest.
type ResultCache struct {
	Dir string
	// StrictPerms enforces 0700 on the cache directory and 0600 on entries.
	StrictPerms bool
}

const (
	entryExt = ".json"
	// keyLen is the length of a hex encoded SHA-256 digest.
	keyLen = sha256.Size * 2
)

// Key names the entry for input as repaired by the engine with fingerprint.
// Changing the rule set, indent or any engine option changes the key.
func Key(fingerprint, input string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}

// open creates the cache directory on first use and returns the mode new
// entries are written with.
func (c *ResultCache) open() (os.FileMode, error) {
	if c == nil || c.Dir == "" {
		return 0, errors.New("cache dir not configured")
	}
	if !c.StrictPerms {
		return 0o644, os.MkdirAll(c.Dir, 0o755)
	}
	if err := os.MkdirAll(c.Dir, 0o700); err != nil {
		return 0, err
	}
	// MkdirAll leaves an existing directory's mode alone.
	if err := os.Chmod(c.Dir, 0o700); err != nil {
		return 0, fmt.Errorf("restrict cache dir: %w", err)
	}
	return 0o600, nil
}

func (c *ResultCache) entryPath(key string) string {
	return filepath.Join(c.Dir, key+entryExt)
}

// Get returns the cached result for key. A missing or unreadable entry is a
// miss, not an error.
func (c *ResultCache) Get(_ context.Context, key string) (jsonrepair.Result, bool, error) {
	if _, err := c.open(); err != nil {
		return jsonrepair.Result{}, false, err
	}
	p := c.entryPath(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return jsonrepair.Result{}, false, nil
	}
	var res jsonrepair.Result
	if err := json.Unmarshal(b, &res); err != nil {
		return jsonrepair.Result{}, false, nil
	}
	if res.AppliedRules == nil {
		res.AppliedRules = []string{}
	}
	if res.Changes == nil {
		res.Changes = []string{}
	}
	// Touch mtime so age-based purging keeps hot entries.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return res, true, nil
}

// Save writes res under key.
func (c *ResultCache) Save(_ context.Context, key string, res jsonrepair.Result) error {
	mode, err := c.open()
	if err != nil {
		return err
	}
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return os.WriteFile(c.entryPath(key), b, mode)
}
