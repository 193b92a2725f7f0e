package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mdtf/internal/podconfig"
	"github.com/agentic-research/mdtf/internal/report"
	"github.com/agentic-research/mdtf/internal/runner"
)

type checkOptions struct {
	ConfigPath    string
	ReportDB      string
	MaxAlternates int
	// OverrideMax applies MaxAlternates over the run config value.
	OverrideMax bool
	Strict      bool
}

var checkOpts checkOptions

func init() {
	checkCmd.Flags().StringVarP(&checkOpts.ConfigPath, "config", "c", "", "Path to the run configuration (YAML)")
	checkCmd.Flags().StringVar(&checkOpts.ReportDB, "report-db", "", "Append reports to this SQLite database")
	checkCmd.Flags().IntVar(&checkOpts.MaxAlternates, "max-alternates", 0, "Existence checks per variable, primary included (0 tries every alternate)")
	checkCmd.Flags().BoolVar(&checkOpts.Strict, "strict", false, "Exit non-zero if any pod is skipped")
	_ = checkCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every pod of a run configuration against every case",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := checkOpts
		opts.OverrideMax = cmd.Flags().Changed("max-alternates")
		return runCheck(cmd.Context(), newHostEnv(), opts, cmd.OutOrStdout())
	},
}

func runCheck(ctx context.Context, env hostEnv, opts checkOptions, out io.Writer) (err error) {
	configPath, err := absPath(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg, err := podconfig.NewLoader(env.fs).LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	if opts.OverrideMax {
		if opts.MaxAlternates < 0 {
			return fmt.Errorf("--max-alternates must not be negative")
		}
		cfg.MaxAlternates = opts.MaxAlternates
	}
	if opts.ReportDB != "" {
		if cfg.ReportDB, err = absPath(opts.ReportDB); err != nil {
			return err
		}
	}

	r := runner.NewRunner(cfg, env.manager, env.fs)
	r.Logger = slog.Default()

	if cfg.ReportDB != "" {
		w, werr := report.NewSQLiteWriter(cfg.ReportDB)
		if werr != nil {
			return werr
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		r.Sink = w
	}

	start := time.Now()
	reports, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteText(out, reports); err != nil {
		return err
	}
	slog.Debug("check finished", "pods", len(reports), "elapsed", time.Since(start))

	if s := report.Summarize(reports); opts.Strict && s.Skipped > 0 {
		return fmt.Errorf("%d pod(s) skipped", s.Skipped)
	}
	return nil
}
