package flowlog

import (
	"io"
	"strings"

	"flowlog-tagger/internal/diag"
	"flowlog-tagger/internal/source"
)

// SourceName identifies the flow log in diagnostics and faults.
const SourceName = "flow log"

// ParseLine splits a line on runs of whitespace.
//
// It only checks the field count. Port and protocol are validated by the
// caller, which also needs the normalized values.
func ParseLine(line string) (Record, bool) {
	fields := strings.Fields(line)
	if len(fields) != FieldCount {
		return Record{}, false
	}

	var r Record
	copy(r.Fields[:], fields)
	r.DstPort = strings.ToLower(strings.TrimSpace(fields[DstPortField]))
	r.Protocol = strings.ToLower(strings.TrimSpace(fields[ProtocolField]))
	return r, true
}

// Line is an input line with its 1-based position.
type Line struct {
	No   int
	Text string
}

// Scan calls fn for every line in r that has the right field count. Any
// other line, blank lines included, is reported to sink instead.
func Scan(r io.Reader, sink diag.Sink, fn func(Line, Record)) error {
	if sink == nil {
		sink = diag.Discard
	}

	return source.Lines(r, func(no int, text string) {
		rec, ok := ParseLine(text)
		if !ok {
			sink.Malformed(diag.Malformed{Source: SourceName, Reason: diag.FieldCount, LineNo: no, Line: text})
			return
		}
		fn(Line{No: no, Text: text}, rec)
	})
}
