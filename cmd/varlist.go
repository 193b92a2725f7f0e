package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mdtf/internal/envmgr"
	"github.com/agentic-research/mdtf/internal/podconfig"
)

type varlistOptions struct {
	DataDir       string
	CaseName      string
	Alternates    map[string]string
	MaxAlternates int
}

var varlistOpts varlistOptions

func init() {
	varlistCmd.Flags().StringVar(&varlistOpts.DataDir, "data-dir", "", "Case data directory ("+envmgr.EnvDataDir+")")
	varlistCmd.Flags().StringVar(&varlistOpts.CaseName, "case-name", "", "Case name ("+envmgr.EnvCaseName+")")
	varlistCmd.Flags().StringToStringVar(&varlistOpts.Alternates, "alt", nil, "Model name of a variable, var_name=name_in_model (repeatable)")
	varlistCmd.Flags().IntVar(&varlistOpts.MaxAlternates, "max-alternates", envmgr.TryAllAlternates, "Existence checks per variable, primary included (0 tries every alternate)")
	_ = varlistCmd.MarkFlagRequired("data-dir")
	_ = varlistCmd.MarkFlagRequired("case-name")
	rootCmd.AddCommand(varlistCmd)
}

var varlistCmd = &cobra.Command{
	Use:   "varlist [settings]",
	Short: "Classify the data files of one pod's varlist as found or missing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVarlist(newHostEnv(), args[0], varlistOpts, cmd.OutOrStdout())
	},
}

func runVarlist(env hostEnv, settingsPath string, opts varlistOptions, out io.Writer) error {
	settingsPath, err := absPath(settingsPath)
	if err != nil {
		return err
	}
	dataDir, err := absPath(opts.DataDir)
	if err != nil {
		return err
	}
	settings, err := podconfig.NewLoader(env.fs).LoadSettings(settingsPath)
	if err != nil {
		return err
	}

	ctx := envmgr.Context{DataDir: dataDir, CaseName: opts.CaseName, AlternateNames: opts.Alternates}
	res := env.manager.ResolveVarlistFiles(ctx, settings.Varlist, opts.MaxAlternates)

	for _, f := range res.FoundFiles {
		if _, err := fmt.Fprintf(out, "found    %s\n", f); err != nil {
			return err
		}
	}
	for _, f := range res.MissingFiles {
		if _, err := fmt.Fprintf(out, "missing  %s\n", f); err != nil {
			return err
		}
	}
	vars := make([]string, 0, len(res.Substitutions))
	for v := range res.Substitutions {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	for _, v := range vars {
		if _, err := fmt.Fprintf(out, "alternate %s -> %s\n", v, res.Substitutions[v]); err != nil {
			return err
		}
	}

	if !res.Complete() {
		return fmt.Errorf("%d required variable(s) unsatisfied", len(res.Unsatisfied()))
	}
	return nil
}
