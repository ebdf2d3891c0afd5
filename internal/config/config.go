package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for one tagging run.
type Config struct {
	LookupFile  string
	FlowLogFile string
	OutputFile  string
	Root        string
	SortReport  bool

	MetricsTextfile       string
	DisableRuntimeMetrics bool

	ConfigFile string

	LogLevel  string
	LogFormat string

	ShowHelp    bool
	ShowVersion bool
}

// File is the YAML configuration file layout. Unset keys keep the flag value.
type File struct {
	LookupFile            *string `yaml:"lookup_file"`
	FlowLogFile           *string `yaml:"flowlog_file"`
	OutputFile            *string `yaml:"output_file"`
	Root                  *string `yaml:"root"`
	SortReport            *bool   `yaml:"sort_report"`
	MetricsTextfile       *string `yaml:"metrics_textfile"`
	DisableRuntimeMetrics *bool   `yaml:"disable_runtime_metrics"`
	LogLevel              *string `yaml:"log_level"`
	LogFormat             *string `yaml:"log_format"`
}

// ParseFlags parses os.Args with the default flag set.
func ParseFlags() (Config, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Parse registers all flags on fs, parses args and merges the optional
// YAML file. Flags given explicitly on the command line take precedence
// over the file.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config

	fs.StringVar(&cfg.LookupFile, "lookup.file", "lookup.csv", "Lookup table: comma-separated dstport,protocol,tag rows.")
	fs.StringVar(&cfg.FlowLogFile, "flowlog.file", "log.txt", "Flow log: whitespace-separated records with 11 fields.")
	fs.StringVar(&cfg.OutputFile, "output.file", "output.txt", "Report destination. Overwritten if it exists.")
	fs.StringVar(&cfg.Root, "path.root", "", "Directory that relative file paths are resolved against.")
	fs.BoolVar(&cfg.SortReport, "report.sort", true, "Sort tags by name and port/protocol rows by port, then protocol.")

	fs.StringVar(&cfg.MetricsTextfile, "metrics.textfile", "", "Write run metrics in Prometheus text format to this path (node exporter textfile collector).")
	fs.BoolVar(&cfg.DisableRuntimeMetrics, "metrics.disable-runtime", false, "Exclude go_* and process_* metrics from the textfile.")

	fs.StringVar(&cfg.ConfigFile, "config.file", "", "Optional YAML file with defaults for the flags above.")

	fs.StringVar(&cfg.LogLevel, "log.level", "info", "Only log messages with the given severity or above. One of: [debug, info, warn, error]")
	fs.StringVar(&cfg.LogFormat, "log.format", "logfmt", "Output format of log messages. One of: [logfmt, json]")

	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help and exit.")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help and exit.")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show application version and exit.")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show application version and exit.")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if cfg.ConfigFile != "" && !cfg.ShowHelp && !cfg.ShowVersion {
		f, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return cfg, err
		}
		set := map[string]bool{}
		fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
		cfg.merge(f, set)
	}

	return cfg, nil
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	return &f, nil
}

func (c *Config) merge(f *File, set map[string]bool) {
	str := func(flagName string, dst *string, v *string) {
		if v != nil && !set[flagName] {
			*dst = *v
		}
	}
	boolean := func(flagName string, dst *bool, v *bool) {
		if v != nil && !set[flagName] {
			*dst = *v
		}
	}

	str("lookup.file", &c.LookupFile, f.LookupFile)
	str("flowlog.file", &c.FlowLogFile, f.FlowLogFile)
	str("output.file", &c.OutputFile, f.OutputFile)
	str("path.root", &c.Root, f.Root)
	boolean("report.sort", &c.SortReport, f.SortReport)
	str("metrics.textfile", &c.MetricsTextfile, f.MetricsTextfile)
	boolean("metrics.disable-runtime", &c.DisableRuntimeMetrics, f.DisableRuntimeMetrics)
	str("log.level", &c.LogLevel, f.LogLevel)
	str("log.format", &c.LogFormat, f.LogFormat)
}
