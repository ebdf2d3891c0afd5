package diag

// Reason says why an input line was dropped.
type Reason string

const (
	FieldCount Reason = "field_count"
	Port       Reason = "port"
	Protocol   Reason = "protocol"
	Tag        Reason = "tag"
)

// Describe returns the human-readable diagnostic message for a reason on a
// named source ("lookup table", "flow log").
func (r Reason) Describe(source string) string {
	switch r {
	case FieldCount:
		return "invalid entry in " + source
	case Port:
		return "invalid port in " + source
	case Protocol:
		return "invalid protocol in " + source
	case Tag:
		return "empty tag in " + source
	default:
		return "invalid line in " + source
	}
}

// Malformed describes one dropped line.
type Malformed struct {
	Source string
	Reason Reason
	LineNo int
	Line   string
}

// Sink receives one call per dropped line. Implementations must not fail.
type Sink interface {
	Malformed(m Malformed)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Malformed)

func (f SinkFunc) Malformed(m Malformed) { f(m) }

// Tee fans out to every non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(m Malformed) {
		for _, s := range sinks {
			if s != nil {
				s.Malformed(m)
			}
		}
	})
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(Malformed) {})

// Recorder keeps every diagnostic in memory.
type Recorder struct {
	Entries []Malformed
}

func (r *Recorder) Malformed(m Malformed) { r.Entries = append(r.Entries, m) }

// Count returns the number of recorded diagnostics with the given reason.
func (r *Recorder) Count(reason Reason) int {
	n := 0
	for _, m := range r.Entries {
		if m.Reason == reason {
			n++
		}
	}
	return n
}

// Warner is the part of a logger used for diagnostics.
type Warner interface {
	Warn(msg string, kv ...any)
}

// Log writes one warn line per dropped line, carrying the raw text.
func Log(w Warner) Sink {
	return SinkFunc(func(m Malformed) {
		w.Warn(m.Reason.Describe(m.Source), "source", m.Source, "reason", string(m.Reason), "line_no", m.LineNo, "line", m.Line)
	})
}
