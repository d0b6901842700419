package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps Load from finding a config file outside the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 4
max_intermediate: 3
task_timeout: 30s
multi_policy: abort
heatmap:
  top_n: 20
reports:
  exact: exact.pdf
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxIntermediate)
	assert.Equal(t, 30*time.Second, cfg.TaskTimeout)
	assert.Equal(t, PolicyAbort, cfg.MultiPolicy)
	assert.Equal(t, 20, cfg.Heatmap.TopN)
	assert.Equal(t, "exact.pdf", cfg.Reports.Exact)
	assert.Equal(t, "flexible_search_report.pdf", cfg.Reports.Flexible, "unset keys keep defaults")
}

func TestLoad_DiscoversConfigInWorkingDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("context_window: 80\n"), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.ContextWindow)
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("PDFPHRASE_MAX_INTERMEDIATE", "5")
	t.Setenv("PDFPHRASE_HEATMAP_MIN_LENGTH", "6")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxIntermediate)
	assert.Equal(t, 6, cfg.Heatmap.MinLength)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PDFPHRASE_WORKERS", "3")
	t.Setenv("PDFPHRASE_OUTPUT_DIR", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 0, "")
	flags.String("output-dir", ".", "")
	flags.String("policy", PolicyAbort, "")
	require.NoError(t, flags.Parse([]string{"--workers", "7", "--policy", "skip"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, PolicySkip, cfg.SearchPolicy)
	assert.Equal(t, "/from/env", cfg.OutputDir, "unchanged flags do not shadow the environment")
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [\n"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"negative chunk size", func(c *Config) { c.ChunkSize = -1 }, "chunk_size"},
		{"zero gap", func(c *Config) { c.MaxIntermediate = 0 }, "max_intermediate"},
		{"negative window", func(c *Config) { c.ContextWindow = -1 }, "context_window"},
		{"negative timeout", func(c *Config) { c.TaskTimeout = -time.Second }, "task_timeout"},
		{"unknown policy", func(c *Config) { c.MultiPolicy = "retry" }, "retry"},
		{"empty heatmap", func(c *Config) { c.Heatmap.TopN = 0 }, "top_n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "/reports"
	assert.Equal(t, "/reports/exact.pdf", cfg.OutputPath("exact.pdf"))
	assert.Equal(t, "/tmp/x.png", cfg.OutputPath("/tmp/x.png"))

	cfg.OutputDir = ""
	assert.Equal(t, "exact.pdf", cfg.OutputPath("exact.pdf"))
}

func TestEffectiveWorkers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, OptimalWorkers(), cfg.EffectiveWorkers())

	cfg.Workers = 5
	assert.Equal(t, 5, cfg.EffectiveWorkers())

	cfg.Workers = 500
	assert.Equal(t, MaxWorkersCeiling, cfg.EffectiveWorkers())
}
