package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "rustnav")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "rustnav")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	if !strings.Contains(got, "rustnav") {
		t.Errorf("expected rustnav in path, got %q", got)
	}
}

func TestStringToDurationHook(t *testing.T) {
	t.Parallel()

	hook := stringToDurationHookFunc().(func(reflect.Type, reflect.Type, interface{}) (interface{}, error))
	durType := reflect.TypeOf(time.Duration(0))

	got, err := hook(reflect.TypeOf(""), durType, "90s")
	if err != nil {
		t.Fatalf("string hook: %v", err)
	}
	if got != 90*time.Second {
		t.Errorf("got %v, want 90s", got)
	}

	// Bare integers are seconds.
	got, err = hook(reflect.TypeOf(int64(0)), durType, int64(30))
	if err != nil {
		t.Fatalf("int hook: %v", err)
	}
	if got != 30*time.Second {
		t.Errorf("got %v, want 30s", got)
	}

	// Non-duration targets pass through untouched.
	got, err = hook(reflect.TypeOf(""), reflect.TypeOf(""), "hello")
	if err != nil || got != "hello" {
		t.Errorf("got %v, %v", got, err)
	}

	if _, err := hook(reflect.TypeOf(""), durType, "not a duration"); err == nil {
		t.Error("expected error for malformed duration")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.BaseURL != "https://docs.rs" {
		t.Errorf("base url = %q", cfg.Fetch.BaseURL)
	}
	if cfg.Fetch.Timeout != 60*time.Second {
		t.Errorf("timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.Daemon.ExpirationSeconds != 600 {
		t.Errorf("expiration = %d", cfg.Daemon.ExpirationSeconds)
	}
	if cfg.Validate.Strict {
		t.Error("strict should default to false")
	}
}
