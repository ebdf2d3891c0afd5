package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowlog-tagger/internal/config"
	"flowlog-tagger/internal/fault"
	"flowlog-tagger/internal/logging"
	"flowlog-tagger/internal/metrics"
)

const lookupCSV = `dstport,protocol,tag
25,tcp,sv_p1
68,udp,sv_p2
23,tcp,sv_p1
`

var flowLines = []string{
	"2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49153 25 6 25 20000 ACCEPT",
	"2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49154 25 tcp 25 20000 ACCEPT",
	"2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49155 23 6 25 20000 ACCEPT",
	"2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49156 9999 6 25 20000 REJECT",
	"2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49157 abc 6 25 20000 REJECT",
}

func testConfig(t *testing.T, lookup, flows string) config.Config {
	t.Helper()
	dir := t.TempDir()
	if lookup != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "lookup.csv"), []byte(lookup), 0o644))
	}
	if flows != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "log.txt"), []byte(flows), 0o644))
	}
	return config.Config{
		Root:        dir,
		LookupFile:  "lookup.csv",
		FlowLogFile: "log.txt",
		OutputFile:  "output.txt",
		SortReport:  true,
		LogLevel:    "info",
		LogFormat:   "logfmt",
	}
}

func TestRunWritesReport(t *testing.T) {
	cfg := testConfig(t, lookupCSV, strings.Join(flowLines, "\n"))
	var stderr bytes.Buffer

	code := run(cfg, "test", &stderr)
	require.Equal(t, ExitOK, code, stderr.String())

	out, err := os.ReadFile(filepath.Join(cfg.Root, "output.txt"))
	require.NoError(t, err)
	assert.Equal(t, `Tag Counts:
Tag,Count
sv_p1,3
Untagged,1

Port/Protocol Combination Counts:
Port,Protocol,Count
23,tcp,1
25,tcp,2
9999,tcp,1
`, string(out))

	logs := stderr.String()
	assert.Equal(t, 2, strings.Count(logs, "level=warn"))
	assert.Contains(t, logs, `msg="invalid port in lookup table"`)
	assert.Contains(t, logs, `msg="invalid port in flow log"`)
	assert.Contains(t, logs, "49157 abc 6")
	assert.Contains(t, logs, `msg="report written"`)
}

func TestRunMissingLookup(t *testing.T) {
	cfg := testConfig(t, "", strings.Join(flowLines, "\n"))
	var stderr bytes.Buffer

	assert.Equal(t, ExitMissingSource, run(cfg, "test", &stderr))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "output.txt"))
	assert.Contains(t, stderr.String(), `kind="missing source"`)
}

func TestRunMissingFlowLog(t *testing.T) {
	cfg := testConfig(t, lookupCSV, "")
	assert.Equal(t, ExitMissingSource, run(cfg, "test", &bytes.Buffer{}))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "output.txt"))
}

func TestRunEmptyLookupWritesNothing(t *testing.T) {
	cfg := testConfig(t, "port,proto,tag\nbad\n", strings.Join(flowLines, "\n"))
	var stderr bytes.Buffer

	assert.Equal(t, ExitEmptyResult, run(cfg, "test", &stderr))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "output.txt"))
	assert.Contains(t, stderr.String(), "no valid entries")
}

func TestRunEmptyFlowLog(t *testing.T) {
	cfg := testConfig(t, lookupCSV, "not a record\n")
	assert.Equal(t, ExitEmptyResult, run(cfg, "test", &bytes.Buffer{}))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "output.txt"))
}

func TestRunUnwritableOutput(t *testing.T) {
	cfg := testConfig(t, lookupCSV, strings.Join(flowLines, "\n"))
	cfg.OutputFile = filepath.Join("no-such-dir", "output.txt")

	assert.Equal(t, ExitWriteFailure, run(cfg, "test", &bytes.Buffer{}))
}

func TestRunMetricsTextfile(t *testing.T) {
	cfg := testConfig(t, lookupCSV, strings.Join(flowLines, "\n"))
	cfg.MetricsTextfile = filepath.Join(cfg.Root, "flowlog_tagger.prom")
	cfg.DisableRuntimeMetrics = true

	require.Equal(t, ExitOK, run(cfg, "test", &bytes.Buffer{}))

	b, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	prom := string(b)
	assert.Contains(t, prom, "flowlog_tagger_flow_records_total 4")
	assert.Contains(t, prom, "flowlog_tagger_untagged_records_total 1")
	assert.Contains(t, prom, `flowlog_tagger_tag_matches_total{tag="sv_p1"} 3`)
	assert.Contains(t, prom, `flowlog_tagger_skipped_lines_total{reason="port",source="flow log"} 1`)
	assert.Contains(t, prom, `flowlog_tagger_port_protocol_records_total{port="25",protocol="tcp"} 2`)
}

func TestExecuteErrorKinds(t *testing.T) {
	log := logging.New(&bytes.Buffer{}, logging.Error, logging.Logfmt)

	cfg := testConfig(t, "", "")
	err := Execute(cfg, log, metrics.NewRunCollector())
	assert.ErrorIs(t, err, fault.ErrMissingSource)

	cfg = testConfig(t, "x,y,z\n", strings.Join(flowLines, "\n"))
	err = Execute(cfg, log, metrics.NewRunCollector())
	assert.ErrorIs(t, err, fault.ErrEmptyResult)
}

func TestVersion(t *testing.T) {
	var stderr bytes.Buffer
	cfg := config.Config{ShowVersion: true}
	assert.Equal(t, ExitOK, run(cfg, "1.2.3", &stderr))
	assert.Contains(t, stderr.String(), "version=1.2.3")
}

func TestRunInputIsDirectory(t *testing.T) {
	cfg := testConfig(t, lookupCSV, "")
	require.NoError(t, os.Mkdir(filepath.Join(cfg.Root, "log.txt"), 0o755))
	var stderr bytes.Buffer

	assert.Equal(t, ExitMissingSource, run(cfg, "test", &stderr))
	assert.NoFileExists(t, filepath.Join(cfg.Root, "output.txt"))
	assert.Contains(t, stderr.String(), "is a directory")
}

func TestRunDebugDumpsLookupTable(t *testing.T) {
	cfg := testConfig(t, "25,tcp,sv_p1\n25,6,mail\n68,udp,sv_p2\n", strings.Join(flowLines, "\n"))
	cfg.LogLevel = "debug"
	var stderr bytes.Buffer

	require.Equal(t, ExitOK, run(cfg, "test", &stderr))

	logs := stderr.String()
	assert.Equal(t, 2, strings.Count(logs, `msg="lookup entry"`))
	assert.Contains(t, logs, "port=25 protocol=tcp tags=mail|sv_p1")
	assert.Less(t, strings.Index(logs, "port=25 "), strings.Index(logs, "port=68 "))
}
