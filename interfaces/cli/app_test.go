package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"version"})
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "cacheman version") {
		t.Errorf("version output missing 'cacheman version', got: %s", output)
	}
}

func TestApp_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"--help"})
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"get", "set", "del", "reset", "ping"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q command, got: %s", want, output)
		}
	}
}

func TestApp_Get_RequiresKey(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"get"})
	if err == nil {
		t.Fatal("get without a key should fail")
	}
}

func TestApp_CacheConfig_FlagsOverrideFile(t *testing.T) {
	app := New()
	app.uri = "mongodb://flag-host:27017"
	app.database = "flagdb"
	app.defaultTTL = 90
	app.compress = true

	cfg, err := app.cacheConfig()
	if err != nil {
		t.Fatalf("cacheConfig() error = %v", err)
	}

	if cfg.URI != "mongodb://flag-host:27017" {
		t.Errorf("URI = %q", cfg.URI)
	}
	if cfg.Database != "flagdb" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.DefaultTTL.Seconds() != 90 {
		t.Errorf("DefaultTTL = %v, want 90s", cfg.DefaultTTL)
	}
	if !cfg.Compression {
		t.Error("Compression should be enabled")
	}
}

func TestApp_CacheConfig_MissingConfigFile(t *testing.T) {
	app := New()
	app.configPath = "/nonexistent/cacheman.yaml"

	if _, err := app.cacheConfig(); err == nil {
		t.Fatal("cacheConfig() should fail for a missing config file")
	}
}
