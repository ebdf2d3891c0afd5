package aggregate

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"flowlog-tagger/internal/diag"
	"flowlog-tagger/internal/fault"
	"flowlog-tagger/internal/flowlog"
	"flowlog-tagger/internal/lookup"
	"flowlog-tagger/internal/protocol"
)

// Counts is the result of one aggregation pass.
//
// Invariants:
//   - Records equals the sum of PortProtocol values.
//   - every counted record either matched a lookup key (and bumped each of
//     its tags once) or bumped Untagged, never both.
type Counts struct {
	Tags         map[string]uint64
	PortProtocol map[lookup.Key]uint64
	Untagged     uint64
	Records      uint64
	Matched      uint64
}

func NewCounts() *Counts {
	return &Counts{
		Tags:         map[string]uint64{},
		PortProtocol: map[lookup.Key]uint64{},
	}
}

// TagNames returns the counted tags in lexical order.
func (c *Counts) TagNames() []string {
	out := make([]string, 0, len(c.Tags))
	for t := range c.Tags {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Keys returns the counted port/protocol keys ordered by port, then protocol.
func (c *Counts) Keys() []lookup.Key {
	out := make([]lookup.Key, 0, len(c.PortProtocol))
	for k := range c.PortProtocol {
		out = append(out, k)
	}
	lookup.SortKeys(out)
	return out
}

// Aggregator classifies flow records against a lookup table.
type Aggregator struct {
	table  *lookup.Table
	sink   diag.Sink
	counts *Counts
}

func New(table *lookup.Table, sink diag.Sink) *Aggregator {
	if sink == nil {
		sink = diag.Discard
	}
	return &Aggregator{table: table, sink: sink, counts: NewCounts()}
}

// Observe validates one parsed record and updates the counters. It reports
// whether the record was counted.
func (a *Aggregator) Observe(line flowlog.Line, rec flowlog.Record) bool {
	k, err := lookup.ParseKey(rec.DstPort, rec.Protocol)
	if err != nil {
		reason := diag.Port
		if errors.Is(err, protocol.ErrInvalid) {
			reason = diag.Protocol
		}
		a.sink.Malformed(diag.Malformed{Source: flowlog.SourceName, Reason: reason, LineNo: line.No, Line: line.Text})
		return false
	}

	c := a.counts
	c.Records++
	c.PortProtocol[k]++

	matched := a.table.Each(k, func(tag string) { c.Tags[tag]++ })
	if matched {
		c.Matched++
	} else {
		c.Untagged++
	}
	return true
}

// Run reads every line of r and returns the counters. It fails with
// fault.EmptyResult when no record was valid.
func Run(r io.Reader, table *lookup.Table, sink diag.Sink) (*Counts, error) {
	a := New(table, sink)
	if err := flowlog.Scan(r, a.sink, func(l flowlog.Line, rec flowlog.Record) { a.Observe(l, rec) }); err != nil {
		return nil, fmt.Errorf("read %s: %w", flowlog.SourceName, err)
	}
	if a.counts.Records == 0 {
		return nil, fault.Empty(flowlog.SourceName)
	}
	return a.counts, nil
}
