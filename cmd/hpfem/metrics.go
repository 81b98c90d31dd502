package main

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rwcarlsen/hpfem"
)

// runMetrics collects the final state of a run for the Prometheus node
// exporter textfile collector.
type runMetrics struct {
	reg   *prometheus.Registry
	gauge *prometheus.GaugeVec
}

func newRunMetrics(problem string) *runMetrics {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "hpfem_run",
			Help:        "Final value of a run quantity",
			ConstLabels: prometheus.Labels{"problem": problem},
		},
		[]string{"quantity"},
	)
	reg := prometheus.NewRegistry()
	reg.MustRegister(gauge)
	return &runMetrics{reg: reg, gauge: gauge}
}

func (m *runMetrics) set(quantity string, v float64) {
	m.gauge.WithLabelValues(quantity).Set(v)
}

// observeHistory records the last adaptivity step.
func (m *runMetrics) observeHistory(h hpfem.History, converged bool) {
	m.set("steps", float64(len(h)))
	m.set("converged", boolGauge(converged))
	if len(h) == 0 {
		return
	}
	last := h[len(h)-1]
	m.set("elements", float64(last.NActive))
	m.set("ndof", float64(last.NDof))
	m.set("ndof_ref", float64(last.NDofRef))
	m.set("err_rel_percent", last.ErrRel)
	if !math.IsNaN(last.ErrExact) {
		m.set("err_exact_percent", last.ErrExact)
	}
}

// write atomically replaces path with the collected metrics.
func (m *runMetrics) write(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
