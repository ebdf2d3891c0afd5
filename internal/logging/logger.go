package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown log level %q", s)
	}
}

// Format is a log output format.
type Format string

const (
	Logfmt Format = "logfmt"
	JSON   Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case Logfmt:
		return Logfmt, nil
	case JSON:
		return JSON, nil
	default:
		return Logfmt, fmt.Errorf("unknown log format %q", s)
	}
}

// Logger writes one structured line per call. Loggers derived with With
// share the output and its lock, so all of them are safe for concurrent use.
type Logger struct {
	out    *output
	level  Level
	format Format
	ctx    []any

	// now is replaced in tests.
	now func() time.Time
}

type output struct {
	mu sync.Mutex
	w  io.Writer
}

func New(out io.Writer, level Level, format Format) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		out:    &output{w: out},
		level:  level,
		format: format,
		now:    time.Now,
	}
}

// With returns a child logger that prepends kv to every line.
func (l *Logger) With(kv ...any) *Logger {
	child := *l
	child.ctx = append(append([]any(nil), l.ctx...), kv...)
	return &child
}

func (l *Logger) Enabled(lvl Level) bool { return lvl >= l.level }

func (l *Logger) Debug(msg string, kv ...any) { l.log(Debug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(Info, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(Warn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(Error, msg, kv) }

func (l *Logger) log(lvl Level, msg string, kv []any) {
	if !l.Enabled(lvl) {
		return
	}

	pairs := make([]any, 0, 6+len(l.ctx)+len(kv))
	pairs = append(pairs, "ts", l.now().UTC().Format(time.RFC3339Nano), "level", lvl.String(), "msg", msg)
	pairs = append(pairs, l.ctx...)
	pairs = append(pairs, kv...)

	var line []byte
	if l.format == JSON {
		line = encodeJSON(pairs)
	} else {
		line = encodeLogfmt(pairs)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = l.out.w.Write(line)
}

func encodeJSON(pairs []any) []byte {
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			m[k] = jsonValue(pairs[i+1])
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","msg":%q}`, "log encode: "+err.Error()))
	}
	return append(b, '\n')
}

func jsonValue(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

// encodeLogfmt is logfmt-ish: values are quoted when they need it, keys are
// written as given.
func encodeLogfmt(pairs []any) []byte {
	var sb strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(escapeLogfmt(fmt.Sprint(pairs[i+1])))
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

func escapeLogfmt(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\r\n\"=\\") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
