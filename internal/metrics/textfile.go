package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewRegistry returns a registry with the run collector and, unless
// disabled, the Go runtime and process collectors.
func NewRegistry(run *RunCollector, withRuntime bool) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
			prometheus.NewGoCollector(),
		)
	}
	run.MustRegister(reg)
	return reg
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
