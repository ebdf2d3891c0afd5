package lookup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"flowlog-tagger/internal/diag"
	"flowlog-tagger/internal/fault"
	"flowlog-tagger/internal/protocol"
	"flowlog-tagger/internal/source"
)

// SourceName identifies the lookup table in diagnostics and faults.
const SourceName = "lookup table"

const fieldCount = 3

// Build reads comma-separated "port,protocol,tag" rows from r.
//
// Malformed rows, blank lines included, are reported to sink and skipped. A
// header row such as "dstport,protocol,tag" fails port validation and is
// skipped the same way. If no row is valid, Build returns a fault.EmptyResult.
func Build(r io.Reader, sink diag.Sink) (*Table, error) {
	if sink == nil {
		sink = diag.Discard
	}
	t := NewTable()

	valid := false
	err := source.Lines(r, func(lineNo int, raw string) {
		k, tag, reason := parseRow(raw)
		if reason != "" {
			sink.Malformed(diag.Malformed{Source: SourceName, Reason: reason, LineNo: lineNo, Line: raw})
			return
		}
		t.Add(k, tag)
		valid = true
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SourceName, err)
	}
	if !valid {
		return nil, fault.Empty(SourceName)
	}
	return t, nil
}

func parseRow(raw string) (Key, string, diag.Reason) {
	cols := splitRow(raw)
	if len(cols) != fieldCount {
		return Key{}, "", diag.FieldCount
	}
	for i := range cols {
		cols[i] = strings.ToLower(strings.TrimSpace(cols[i]))
	}

	k, err := ParseKey(cols[0], cols[1])
	switch {
	case errors.Is(err, ErrInvalidPort):
		return Key{}, "", diag.Port
	case errors.Is(err, protocol.ErrInvalid):
		return Key{}, "", diag.Protocol
	}
	if cols[2] == "" {
		return Key{}, "", diag.Tag
	}
	return k, cols[2], ""
}

// splitRow splits on commas and drops trailing empty fields, so
// "25,tcp,mail," is a three-field row and "25,tcp," a two-field one. A line
// without any comma is a single field, even when empty.
func splitRow(raw string) []string {
	cols := strings.Split(raw, ",")
	if len(cols) == 1 {
		return cols
	}
	for len(cols) > 0 && cols[len(cols)-1] == "" {
		cols = cols[:len(cols)-1]
	}
	return cols
}
