package main

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/hpfem"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "hpfem",
	Short: "hpfem solves 1D problems with hp-adaptive finite elements",
	Long: `hpfem runs stock boundary value and eigenvalue problems on an hp-adaptive
one dimensional finite element mesh.  Solver and adaptivity settings come from
an optional YAML config file; see "hpfem config" for the defaults.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringP("out", "o", ".", "directory output files are written to")
}

// setup loads the config named by --config (defaults otherwise) and builds
// the logger.
func setup(cmd *cobra.Command) (hpfem.Config, *zap.Logger, error) {
	cfg := hpfem.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = hpfem.LoadConfig(path); err != nil {
			return cfg, nil, err
		}
	}

	config := zap.NewProductionConfig()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := config.Build()
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}
