package app

import (
	"io"
	"os"
	"strings"

	"flowlog-tagger/internal/aggregate"
	"flowlog-tagger/internal/config"
	"flowlog-tagger/internal/diag"
	"flowlog-tagger/internal/fault"
	"flowlog-tagger/internal/logging"
	"flowlog-tagger/internal/lookup"
	"flowlog-tagger/internal/metrics"
	"flowlog-tagger/internal/report"
	"flowlog-tagger/internal/source"
)

// Exit codes returned by Run.
const (
	ExitOK            = 0
	ExitError         = 1
	ExitUsage         = 2
	ExitMissingSource = 3
	ExitEmptyResult   = 4
	ExitWriteFailure  = 5
)

// Run wires the application together, performs one tagging run and returns
// the process exit code.
func Run(cfg config.Config, version string) int {
	return run(cfg, version, os.Stderr)
}

func run(cfg config.Config, version string, stderr io.Writer) int {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.Info
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		format = logging.Logfmt
	}
	log := logging.New(stderr, level, format)

	if cfg.ShowVersion {
		log.Info("version", "version", version)
		return ExitOK
	}

	mc := metrics.NewRunCollector()
	err = Execute(cfg, log, mc)

	if cfg.MetricsTextfile != "" {
		if err == nil {
			mc.MarkSuccess()
		}
		reg := metrics.NewRegistry(mc, !cfg.DisableRuntimeMetrics)
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile, reg); werr != nil {
			log.Warn("failed to write metrics textfile", "path", cfg.MetricsTextfile, "err", werr)
		}
	}

	if err != nil {
		code := ExitCode(err)
		log.Error("run failed", "kind", fault.KindOf(err).String(), "err", err, "exit_code", code)
		return code
	}
	return ExitOK
}

// Execute runs the lookup, aggregation and report stages in order. Malformed
// lines are logged and counted in mc; any returned error is fatal.
func Execute(cfg config.Config, log *logging.Logger, mc *metrics.RunCollector) error {
	fs := source.FS{Root: cfg.Root}

	var table *lookup.Table
	lookupLog := log.With("component", "lookup")
	err := fs.Consume(cfg.LookupFile, func(r io.Reader) error {
		var err error
		table, err = lookup.Build(r, diag.Tee(diag.Log(lookupLog), mc))
		return err
	})
	if err != nil {
		return err
	}
	mc.ApplyLookup(table)
	lookupLog.Info("lookup table loaded", "path", fs.Path(cfg.LookupFile), "keys", table.Len())
	if lookupLog.Enabled(logging.Debug) {
		dumpTable(lookupLog, table)
	}

	var counts *aggregate.Counts
	flowLog := log.With("component", "flowlog")
	err = fs.Consume(cfg.FlowLogFile, func(r io.Reader) error {
		var err error
		counts, err = aggregate.Run(r, table, diag.Tee(diag.Log(flowLog), mc))
		return err
	})
	if err != nil {
		return err
	}
	mc.ApplyCounts(counts)
	flowLog.Info("flow log processed",
		"path", fs.Path(cfg.FlowLogFile),
		"records", counts.Records,
		"matched", counts.Matched,
		"untagged", counts.Untagged,
		"port_protocol_keys", len(counts.PortProtocol),
	)

	opts := report.Options{Sorted: cfg.SortReport}
	if err := fs.Produce(cfg.OutputFile, func(w io.Writer) error {
		return report.Write(w, counts, opts)
	}); err != nil {
		return err
	}
	log.Info("report written", "path", fs.Path(cfg.OutputFile), "tags", len(counts.Tags))
	return nil
}

func dumpTable(log *logging.Logger, t *lookup.Table) {
	for _, k := range t.Keys() {
		tags, _ := t.Tags(k)
		log.Debug("lookup entry", "port", k.Port, "protocol", k.Protocol, "tags", strings.Join(tags, "|"))
	}
}

// ExitCode maps a fatal error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch fault.KindOf(err) {
	case fault.MissingSource:
		return ExitMissingSource
	case fault.EmptyResult:
		return ExitEmptyResult
	case fault.WriteFailure:
		return ExitWriteFailure
	default:
		return ExitError
	}
}
