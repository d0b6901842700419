package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"pdfphrase/config"
	"pdfphrase/logging"
)

var version = "0.3"

// env is the state shared by every command of one invocation.
type env struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()

	pick picker
	open opener
}

func defaultEnv() *env {
	return &env{pick: zenityPicker, open: xdgOpen}
}

// NewRootCmd creates the root command for the pdfphrase CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnv())
}

func newRootCmd(e *env) *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "pdfphrase",
		Short: "Exact and flexible phrase search over PDF documents",
		Long: `pdfphrase searches PDF documents for a phrase, either as an exact
whole-word occurrence or flexibly with a few intervening words between the
phrase terms, and writes PDF reports and PNG heatmaps of what it found.

Page ranges are extracted and searched in parallel.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), banner())
			fmt.Fprintln(cmd.OutOrStdout())
			return cmd.Help()
		},
		PersistentPreRunE: e.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if e.cleanup != nil {
				e.cleanup()
			}
			return nil
		},
	}
	cmd.SetVersionTemplate("pdfphrase version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&e.cfgFile, "config", "", "Config file (default ./config.yaml or $HOME/.pdfphrase/config.yaml)")
	pf.Int("workers", defaults.Workers, "Concurrent tasks per dispatch (0 = 2x CPUs, at most 32)")
	pf.Int("chunk-size", defaults.ChunkSize, "PDF pages per chunk (0 = derive from page and CPU count)")
	pf.Duration("task-timeout", defaults.TaskTimeout, "Per-task time limit, e.g. 30s (0 = none)")
	pf.String("output-dir", defaults.OutputDir, "Directory for reports and heatmaps")
	pf.Bool("open", defaults.Open, "Open generated files with xdg-open")
	pf.String("log-level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	pf.String("log-file", defaults.Log.File, "Write JSON logs to this file instead of stderr")

	cmd.AddCommand(newExactCmd(e))
	cmd.AddCommand(newFlexibleCmd(e))
	cmd.AddCommand(newHeatmapCmd(e))
	cmd.AddCommand(newMultiCmd(e))
	cmd.AddCommand(newMenuCmd(e))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// setup loads configuration and logging for the command about to run.
func (e *env) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(e.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	tui, _ := cmd.Flags().GetBool("tui")
	logger, cleanup, err := logging.Setup(logging.Config{
		Level:    cfg.Log.Level,
		FilePath: cfg.Log.File,
		Quiet:    tui,
	})
	if err != nil {
		return err
	}
	e.cfg, e.logger, e.cleanup = cfg, logger, cleanup
	return nil
}

// run executes j inline, or under the result browser when tui is set, then
// prints the summary and opens generated files if configured.
func (e *env) run(cmd *cobra.Command, tui bool, j job) error {
	s := newSession(e.cfg, e.logger)
	p := printer{w: cmd.OutOrStdout()}

	var (
		o   outcome
		err error
	)
	if tui {
		o, err = browse(cmd.Context(), s, j)
	} else {
		o, err = j(cmd.Context(), s)
	}
	if err != nil {
		return err
	}
	p.summary(o)
	return e.show(o)
}

func (e *env) show(o outcome) error {
	if !e.cfg.Open || e.open == nil {
		return nil
	}
	for _, path := range o.paths() {
		if err := e.open(path); err != nil {
			e.logger.Warn("could not open file", slog.String("path", path), slog.Any("error", err))
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			showVersion(cmd.OutOrStdout())
		},
	}
}

func showVersion(w io.Writer) {
	fmt.Fprintln(w, successStyle.Render("pdfphrase v"+version))
}

// Run executes the CLI and returns a process exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		printer{w: os.Stderr}.err(err)
		return 1
	}
	return 0
}
