package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/hpfem"
	"github.com/rwcarlsen/hpfem/runstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var adaptCmd = &cobra.Command{
	Use:   "adapt <problem>",
	Short: "Solve a stock problem with hp adaptivity",
	Long: `Solves one of the stock problems (poisson, heat, riccati, sine) starting
from a uniform mesh and adapting it until the relative error estimate drops
below adapt.tol_err_rel.  Writes solution.dat, mesh.dat and history.dat.

With --db the run and its history are recorded in a SQLite database that
"hpfem runs" reads back.  With --metrics the final state is written in the
Prometheus text format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		opts := adaptOptions{Problem: args[0]}
		opts.Elems, _ = cmd.Flags().GetInt("elems")
		opts.Degree, _ = cmd.Flags().GetInt("degree")
		opts.Out, _ = cmd.Flags().GetString("out")
		opts.DB, _ = cmd.Flags().GetString("db")
		opts.Metrics, _ = cmd.Flags().GetString("metrics")
		return runAdapt(cfg, log, opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(adaptCmd)
	adaptCmd.Flags().IntP("elems", "n", 4, "number of initial elements")
	adaptCmd.Flags().IntP("degree", "p", 1, "initial polynomial degree")
	adaptCmd.Flags().String("db", "", "SQLite database the run is recorded in")
	adaptCmd.Flags().String("metrics", "", "file the final run metrics are written to")
}

type adaptOptions struct {
	Problem string
	Elems   int
	Degree  int
	Out     string
	DB      string
	Metrics string
}

func runAdapt(cfg hpfem.Config, log *zap.Logger, opts adaptOptions, stdout io.Writer) error {
	prob, err := lookupProblem(opts.Problem)
	if err != nil {
		return err
	}
	m, err := hpfem.NewMesh(prob.A, prob.B, opts.Elems, opts.Degree, prob.NEq)
	if err != nil {
		return err
	}
	dp := hpfem.NewDiscreteProblem(prob.NEq)
	prob.Register(dp, m)

	a, err := cfg.NewAdaptivity(log)
	if err != nil {
		return err
	}
	a.Exact = prob.Exact

	log.Info("adapting", zap.String("problem", prob.Desc), zap.Int("elems", opts.Elems), zap.Int("degree", opts.Degree))
	res, runErr := a.Run(dp, m)
	if runErr != nil && !errors.Is(runErr, hpfem.ErrAdaptNoConvergence) {
		return runErr
	}
	converged := runErr == nil

	n := cfg.Output.Samples
	if err := writeFile(log, opts.Out, "solution.dat", func(w io.Writer) error { return hpfem.WriteSolution(w, res.Coarse, n) }); err != nil {
		return err
	}
	if err := writeFile(log, opts.Out, "mesh.dat", func(w io.Writer) error { return hpfem.WriteMesh(w, res.Coarse) }); err != nil {
		return err
	}
	if err := writeFile(log, opts.Out, "history.dat", func(w io.Writer) error { return hpfem.WriteHistory(w, res.History) }); err != nil {
		return err
	}

	if opts.DB != "" {
		id, err := recordRun(opts.DB, opts.Problem, cfg, converged, res.History)
		if err != nil {
			return err
		}
		log.Info("recorded run", zap.String("db", opts.DB), zap.String("run", id))
	}
	if opts.Metrics != "" {
		rm := newRunMetrics(opts.Problem)
		rm.observeHistory(res.History, converged)
		if err := rm.write(opts.Metrics); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if err := printReport(stdout, historyMarkdown(prob.Desc, res.History)); err != nil {
		return err
	}
	return runErr
}

func recordRun(path, problem string, cfg hpfem.Config, converged bool, h hpfem.History) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	store, err := runstore.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.Record(problem, string(data), converged, h)
}
