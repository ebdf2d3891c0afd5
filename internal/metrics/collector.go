package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"flowlog-tagger/internal/aggregate"
	"flowlog-tagger/internal/diag"
	"flowlog-tagger/internal/lookup"
)

const namespace = "flowlog_tagger"

// RunCollector holds the metrics of a single tagging run.
//
// Counters are filled from the finished aggregate.Counts in one go, the
// same way a snapshot is applied; skipped lines are counted as they are
// reported, so RunCollector also acts as a diag.Sink.
type RunCollector struct {
	lookupKeys   prometheus.Gauge
	skipped      *prometheus.CounterVec
	records      prometheus.Counter
	untagged     prometheus.Counter
	tagMatches   *prometheus.CounterVec
	portProtocol *prometheus.CounterVec
	lastSuccess  prometheus.Gauge
}

func NewRunCollector() *RunCollector {
	return &RunCollector{
		lookupKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lookup_keys",
			Help:      "Distinct port/protocol keys loaded from the lookup table.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_lines_total",
			Help:      "Input lines dropped as malformed, by source and reason.",
		}, []string{"source", "reason"}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_records_total",
			Help:      "Valid flow records processed.",
		}),
		untagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "untagged_records_total",
			Help:      "Valid flow records without a lookup table match.",
		}),
		tagMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tag_matches_total",
			Help:      "Flow records matched per tag.",
		}, []string{"tag"}),
		portProtocol: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "port_protocol_records_total",
			Help:      "Valid flow records per destination port and protocol.",
		}, []string{"port", "protocol"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote a report.",
		}),
	}
}

// MustRegister registers all metrics into the provided registry.
func (c *RunCollector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.lookupKeys,
		c.skipped,
		c.records,
		c.untagged,
		c.tagMatches,
		c.portProtocol,
		c.lastSuccess,
	)
}

// Malformed implements diag.Sink.
func (c *RunCollector) Malformed(m diag.Malformed) {
	c.skipped.WithLabelValues(m.Source, string(m.Reason)).Inc()
}

func (c *RunCollector) ApplyLookup(t *lookup.Table) {
	c.lookupKeys.Set(float64(t.Len()))
}

func (c *RunCollector) ApplyCounts(cnt *aggregate.Counts) {
	c.records.Add(float64(cnt.Records))
	c.untagged.Add(float64(cnt.Untagged))
	for tag, n := range cnt.Tags {
		c.tagMatches.WithLabelValues(tag).Add(float64(n))
	}
	for k, n := range cnt.PortProtocol {
		c.portProtocol.WithLabelValues(strconv.FormatUint(uint64(k.Port), 10), k.Protocol.String()).Add(float64(n))
	}
}

// MarkSuccess records the report write time.
func (c *RunCollector) MarkSuccess() {
	c.lastSuccess.SetToCurrentTime()
}
