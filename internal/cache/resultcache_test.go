package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/toolocean/internal/jsonrepair"
)

func TestResultCache_RoundTrip(t *testing.T) {
	t.Parallel()
	c := &ResultCache{Dir: filepath.Join(t.TempDir(), "results")}
	ctx := context.Background()
	key := Key("fp", "{a: 1}")

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	want := jsonrepair.Repair("{a: 1}")
	if err := c.Save(ctx, key, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached result mismatch (-want +got):\n%s", diff)
	}
}

func TestResultCache_FailureKeepsEmptySlices(t *testing.T) {
	t.Parallel()
	c := &ResultCache{Dir: t.TempDir()}
	ctx := context.Background()
	key := Key("fp", "nonsense")
	if err := c.Save(ctx, key, jsonrepair.Repair("nonsense")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit: ok=%v err=%v", ok, err)
	}
	if got.Succeeded || got.AppliedRules == nil || got.Changes == nil {
		t.Fatalf("unexpected cached failure %+v", got)
	}
}

func TestKey_FingerprintSeparatesEntries(t *testing.T) {
	if Key("a", "x") == Key("b", "x") {
		t.Fatalf("different fingerprints must produce different keys")
	}
	if Key("a", "x") != Key("a", "x") {
		t.Fatalf("keys must be deterministic")
	}
}

func TestResultCache_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "results")
	c := &ResultCache{Dir: dir, StrictPerms: true}
	key := Key("fp", "{}")
	if err := c.Save(context.Background(), key, jsonrepair.Repair("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, key+".json"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestResultCache_Unconfigured(t *testing.T) {
	var c *ResultCache
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error for nil cache")
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, Key("fp", "old")+".json")
	fresh := filepath.Join(dir, Key("fp", "fresh")+".json")
	other := filepath.Join(dir, "settings.json")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}
	n, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("removed = %d, want 1", n)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("old entry should be gone")
	}
	for _, p := range []string{fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s should remain: %v", p, err)
		}
	}
	if n, err := PurgeByAge(filepath.Join(dir, "missing"), time.Hour); err != nil || n != 0 {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
	if n, err := PurgeByAge(dir, 0); err != nil || n != 0 {
		t.Fatalf("zero age: n=%d err=%v", n, err)
	}
}

func TestResultCache_StrictPermsTightensExistingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	c := &ResultCache{Dir: dir, StrictPerms: true}
	if _, _, err := c.Get(context.Background(), Key("fp", "{}")); err != nil {
		t.Fatalf("get: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	c := &ResultCache{Dir: dir}
	ctx := context.Background()
	for _, in := range []string{"{a: 1}", "[1,]"} {
		if err := c.Save(ctx, Key("fp", in), jsonrepair.Repair(in)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	keep := []string{
		filepath.Join(dir, "settings.json"),
		filepath.Join(dir, "README"),
		filepath.Join(dir, "sub", Key("fp", "nested")+".json"),
	}
	for _, p := range keep {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := ClearDir(dir)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}
	if _, ok, _ := c.Get(ctx, Key("fp", "{a: 1}")); ok {
		t.Fatalf("entry survived clear")
	}
	for _, p := range keep {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s should remain: %v", p, err)
		}
	}

	if n, err := ClearDir(filepath.Join(dir, "missing")); err != nil || n != 0 {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
	if _, err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
