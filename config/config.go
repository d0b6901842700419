package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Failure policy names accepted in configuration
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Config is the complete runtime configuration.
type Config struct {
	Workers         int           `mapstructure:"workers"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	MaxIntermediate int           `mapstructure:"max_intermediate"`
	ContextWindow   int           `mapstructure:"context_window"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout"`
	SearchPolicy    string        `mapstructure:"search_policy"`
	MultiPolicy     string        `mapstructure:"multi_policy"`
	OutputDir       string        `mapstructure:"output_dir"`
	Open            bool          `mapstructure:"open"`

	Reports ReportsConfig `mapstructure:"reports"`
	Heatmap HeatmapConfig `mapstructure:"heatmap"`
	Log     LogConfig     `mapstructure:"log"`
}

// ReportsConfig names the generated report files (relative to OutputDir).
type ReportsConfig struct {
	Exact    string `mapstructure:"exact"`
	Flexible string `mapstructure:"flexible"`
	Multi    string `mapstructure:"multi"`
}

// HeatmapConfig configures the frequency heatmaps.
type HeatmapConfig struct {
	TopN      int    `mapstructure:"top_n"`
	MinLength int    `mapstructure:"min_length"`
	WordFile  string `mapstructure:"word_file"`
	PDFFile   string `mapstructure:"pdf_file"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
// Workers of 0 means "derive from CPU count at call time".
func DefaultConfig() Config {
	return Config{
		Workers:         0,
		ChunkSize:       0,
		MaxIntermediate: 2,
		ContextWindow:   50,
		TaskTimeout:     0,
		SearchPolicy:    PolicyAbort,
		MultiPolicy:     PolicySkip,
		OutputDir:       ".",
		Reports: ReportsConfig{
			Exact:    "exact_search_report.pdf",
			Flexible: "flexible_search_report.pdf",
			Multi:    "multi_pdf_flexible_search_report.pdf",
		},
		Heatmap: HeatmapConfig{
			TopN:      15,
			MinLength: 4,
			WordFile:  "word_heatmap.png",
			PDFFile:   "pdf_heatmap.png",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, PDFPHRASE_*
// environment variables and any bound command-line flags, in increasing
// order of precedence. A missing config file is not an error.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("PDFPHRASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pdfphrase")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("workers", d.Workers)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("max_intermediate", d.MaxIntermediate)
	v.SetDefault("context_window", d.ContextWindow)
	v.SetDefault("task_timeout", d.TaskTimeout)
	v.SetDefault("search_policy", d.SearchPolicy)
	v.SetDefault("multi_policy", d.MultiPolicy)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("open", d.Open)
	v.SetDefault("reports.exact", d.Reports.Exact)
	v.SetDefault("reports.flexible", d.Reports.Flexible)
	v.SetDefault("reports.multi", d.Reports.Multi)
	v.SetDefault("heatmap.top_n", d.Heatmap.TopN)
	v.SetDefault("heatmap.min_length", d.Heatmap.MinLength)
	v.SetDefault("heatmap.word_file", d.Heatmap.WordFile)
	v.SetDefault("heatmap.pdf_file", d.Heatmap.PDFFile)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"workers":          "workers",
	"chunk-size":       "chunk_size",
	"max-intermediate": "max_intermediate",
	"context-window":   "context_window",
	"task-timeout":     "task_timeout",
	"policy":           "search_policy",
	"multi-policy":     "multi_policy",
	"output-dir":       "output_dir",
	"open":             "open",
	"top-n":            "heatmap.top_n",
	"min-length":       "heatmap.min_length",
	"log-level":        "log.level",
	"log-file":         "log.file",
}

// bindFlags binds only the flags present on this command, so a flag left at
// its default never shadows a value from the file or environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Validate rejects values the search engine cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be >= 0, got %d", c.ChunkSize)
	}
	if c.MaxIntermediate < 1 {
		return fmt.Errorf("max_intermediate must be >= 1, got %d", c.MaxIntermediate)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("context_window must be >= 0, got %d", c.ContextWindow)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("task_timeout must be >= 0, got %s", c.TaskTimeout)
	}
	for _, p := range []string{c.SearchPolicy, c.MultiPolicy} {
		if p != PolicyAbort && p != PolicySkip {
			return fmt.Errorf("unknown failure policy %q (want %q or %q)", p, PolicyAbort, PolicySkip)
		}
	}
	if c.Heatmap.TopN < 1 {
		return fmt.Errorf("heatmap.top_n must be >= 1, got %d", c.Heatmap.TopN)
	}
	return nil
}

// OutputPath resolves a report or image name against OutputDir.
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) || c.OutputDir == "" {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// EffectiveWorkers returns the configured worker count or the CPU-derived default.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return min(c.Workers, MaxWorkersCeiling)
	}
	return OptimalWorkers()
}
