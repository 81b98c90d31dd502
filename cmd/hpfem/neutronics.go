package main

import (
	"fmt"
	"io"

	"github.com/rwcarlsen/hpfem"
	"github.com/rwcarlsen/hpfem/forms"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Slab reactor: core, blanket and reflector with an albedo condition on the
// outer face.
var (
	slabInterfaces = []float64{0, 50, 100, 125}
	slabMaterials  = map[int]forms.Material{
		0: {D: 0.65, SigmaA: 0.12, NuSigmaF: 0.185},
		1: {D: 0.75, SigmaA: 0.10, NuSigmaF: 0.15},
		2: {D: 1.15, SigmaA: 0.01, NuSigmaF: 0},
	}
)

const (
	slabAlbedo = 0.5
	nu         = 2.43
	// energy released per fission [J]
	energyPerFission = 3.204e-11
)

var neutronicsCmd = &cobra.Command{
	Use:   "neutronics",
	Short: "Find the multiplication factor of a three region slab reactor",
	Long: `Runs the one group power iteration on a slab of core, blanket and
reflector, normalizes the flux to the requested power and writes flux.dat and
mesh.dat.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		elems, _ := cmd.Flags().GetInt("elems")
		degree, _ := cmd.Flags().GetInt("degree")
		power, _ := cmd.Flags().GetFloat64("power")
		tol, _ := cmd.Flags().GetFloat64("tol")
		maxIter, _ := cmd.Flags().GetInt("max-iter")
		out, _ := cmd.Flags().GetString("out")
		metrics, _ := cmd.Flags().GetString("metrics")

		n := len(slabInterfaces) - 1
		degrees, markers, subdivs := make([]int, n), make([]int, n), make([]int, n)
		for i := range degrees {
			degrees[i], markers[i], subdivs[i] = degree, i, elems
		}
		m, err := hpfem.NewMaterialMesh(slabInterfaces, degrees, markers, subdivs, 1)
		if err != nil {
			return err
		}
		m.SetVertexCoeffs(0, 1)

		nd := &forms.NeutronDiffusion{Materials: slabMaterials, Albedo: slabAlbedo}
		dp := hpfem.NewDiscreteProblem(1)
		nd.Register(dp)

		newton, err := cfg.NewNewton(log)
		if err != nil {
			return err
		}
		pi := &forms.PowerIteration{Tol: tol, MaxIter: maxIter, Newton: *newton, Logger: log}
		k, iters, err := pi.Solve(nd, dp, m)
		if err != nil {
			return err
		}
		if err := forms.NormalizeToPower(m, nd, power, energyPerFission, nu); err != nil {
			return err
		}
		log.Info("power iteration converged", zap.Float64("k", k), zap.Int("iterations", iters))

		if err := writeFile(log, out, "flux.dat", func(w io.Writer) error {
			return hpfem.WriteSolution(w, m, cfg.Output.Samples)
		}); err != nil {
			return err
		}
		if err := writeFile(log, out, "mesh.dat", func(w io.Writer) error { return hpfem.WriteMesh(w, m) }); err != nil {
			return err
		}
		if metrics != "" {
			rm := newRunMetrics("neutronics")
			rm.set("k_eff", k)
			rm.set("power_iterations", float64(iters))
			rm.set("ndof", float64(m.NDof))
			if err := rm.write(metrics); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
		}
		fmt.Printf("k=%.8f iterations=%v\n", k, iters)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(neutronicsCmd)
	neutronicsCmd.Flags().IntP("elems", "n", 10, "elements per region")
	neutronicsCmd.Flags().IntP("degree", "p", 2, "polynomial degree")
	neutronicsCmd.Flags().Float64("power", 1e6, "total power [W] the flux is normalized to")
	neutronicsCmd.Flags().Float64("tol", 1e-8, "relative eigenvalue tolerance")
	neutronicsCmd.Flags().Int("max-iter", 5000, "power iteration cap")
	neutronicsCmd.Flags().String("metrics", "", "file the final run metrics are written to")
}
