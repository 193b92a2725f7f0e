package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mdtf/api"
	"github.com/agentic-research/mdtf/internal/podconfig"
)

type driverOptions struct {
	Name    string
	Driver  string
	Program string
}

var driverOpts driverOptions

func init() {
	driverCmd.Flags().StringVar(&driverOpts.Name, "name", "", "Pod name (default: settings pod_name, then the directory name)")
	driverCmd.Flags().StringVar(&driverOpts.Driver, "driver", "", "Driver script, absolute or relative to the pod directory")
	driverCmd.Flags().StringVar(&driverOpts.Program, "program", "", "Interpreter used to run the driver")
	rootCmd.AddCommand(driverCmd)
}

var driverCmd = &cobra.Command{
	Use:   "driver [pod_dir]",
	Short: "Resolve a pod's driver script and interpreter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDriver(newHostEnv(), args[0], driverOpts, cmd.OutOrStdout())
	},
}

// runDriver resolves the pod in dir. Values from the pod's settings file,
// when it has one, are overridden by non-empty flags.
func runDriver(env hostEnv, dir string, opts driverOptions, out io.Writer) error {
	dir, err := absPath(dir)
	if err != nil {
		return err
	}

	var pod api.Pod
	settings, _, err := podconfig.NewLoader(env.fs).LoadPodDir(dir)
	switch {
	case err == nil:
		pod = podconfig.PodFromSettings(dir, settings)
	case errors.Is(err, podconfig.ErrNoSettings):
		pod = podconfig.PodFromSettings(dir, &api.PodSettings{})
	default:
		return err
	}
	if opts.Name != "" {
		pod.Name = opts.Name
	}
	if opts.Driver != "" {
		pod.Driver = opts.Driver
	}
	if opts.Program != "" {
		pod.Program = opts.Program
	}

	if err := env.manager.ResolvePodDriver(&pod); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "pod:     %s\ndriver:  %s\nprogram: %s\n", pod.Name, pod.Driver, pod.Program)
	return err
}
