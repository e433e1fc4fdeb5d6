package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"staymap/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	c := shared.Load()
	if c.HTTPAddr != ":8080" || c.CacheTTL != 15*time.Minute || c.GeolocationTimeout != 3*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_EnvOverridesAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INGEST_WORKERS=3\nHTTP_ADDR=:1111\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":2222")
	t.Setenv("SESSION_IDLE_MINUTES", "5")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Cleanup(func() { os.Unsetenv("INGEST_WORKERS") })

	c := shared.Load()
	if c.HTTPAddr != ":2222" {
		t.Fatalf("real env should win, got %s", c.HTTPAddr)
	}
	if c.Workers != 3 {
		t.Fatalf("expected .env value, got %d", c.Workers)
	}
	if c.SessionIdle != 5*time.Minute || c.RedisDB != 0 {
		t.Fatalf("unexpected: idle=%v db=%d", c.SessionIdle, c.RedisDB)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+): change the working directory
// for the duration of the test and restore it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	})
}
