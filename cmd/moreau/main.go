package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/akmonengine/moreau/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	sceneName  string
	steps      int
	dt         float64
	workers    int
	plot       bool
	benchSteps int
	benchPools []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "moreau",
		Short:         "rigid body time stepping",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and report the tracked body",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "time step, overrides the config")
	runCmd.Flags().IntVar(&workers, "workers", 0, "collision workers, overrides the config")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the height of the tracked body")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene with several worker counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 300, "steps per run")
	benchCmd.Flags().IntSliceVar(&benchPools, "workers", []int{1, 2, 4, 8}, "worker counts")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes",
		RunE:  listScenes,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "print the effective config, or write it to path",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}

	rootCmd.AddCommand(runCmd, benchCmd, scenesCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// loadConfig reads --config over the defaults and applies the command line
// overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Run.Scene = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Run.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Integration.Dt = dt
	}
	if flags.Changed("workers") {
		cfg.World.Workers = workers
	}
	if flags.Changed("plot") {
		cfg.Run.Plot = plot
	}

	return cfg, cfg.Validate()
}
