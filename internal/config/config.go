// Package config parses the receiver's command-line surface
// (spec.md §6) with `github.com/spf13/pflag`, the same flag library
// and StringP/IntP/BoolP calling convention the teacher's own
// `cmd/direwolf/main.go` uses, optionally overlaid with a YAML file
// decoded the way `src/deviceid.go` decodes tocalls.yaml.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/doismellburning/gnssrecv/internal/iq"
)

// ExitCode values, per spec.md §6.
const (
	ExitSuccess    = 0
	ExitUsageError = 2
	ExitInputIO    = 3
	ExitDeviceErr  = 4
	ExitInternal   = 1
)

// InputKind selects which of the three IQ source drivers to use.
// Exactly one must be set (spec.md §6: "-f mutually exclusive with
// -d/-h").
type InputKind int

const (
	InputFile InputKind = iota
	InputLocalTuner
	InputRemoteTCP
)

// Config is the fully-resolved set of options after flags and an
// optional YAML overlay have both been applied; flags always win.
type Config struct {
	InputKind    InputKind
	InputPath    string // -f
	RemoteAddr   string // -h
	Encoding     iq.Encoding
	SampleRateHz float64 // -s; 0 means "use the source's own rate"
	PRNs         []int   // -p; empty means 1..32
	DiagDir      string  // -o; empty disables diagnostics
	DiagInterval float64 // from YAML overlay only; seconds, 0 = default
	GainTenthDb  int32   // from YAML overlay only; negative = AGC
	BiasTee      bool    // -b; powers an external LNA over the antenna feed
	LogLevel     string  // -v
	ConfigFile   string  // -c
}

// fileOverlay is the shape of the optional `-c` YAML file: everything
// here is optional, and only fills in values the command line left at
// its zero value.
type fileOverlay struct {
	DeviceGainTenthDb   *int32   `yaml:"device_gain_tenth_db"`
	DiagnosticInterval  *float64 `yaml:"diagnostic_interval_seconds"`
	PRNs                []int    `yaml:"prns"`
	SampleEncoding      string   `yaml:"sample_encoding"`
}

// Parse reads args (normally os.Args[1:]) and returns a resolved
// Config, or a usage error (ExitUsageError) describing what's wrong.
func Parse(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("gnssrecv", pflag.ContinueOnError)

	filePath := fs.StringP("file", "f", "", "read IQ from a file")
	localTuner := fs.BoolP("device", "d", false, "read IQ from a locally attached RTL-SDR tuner")
	remoteHost := fs.StringP("host", "h", "", "connect to a remote rtl_tcp server at host[:port]")
	encodingStr := fs.StringP("type", "t", "i8", "input sample encoding: i8, u8, 2xi16, 2xf16, 2xf32")
	sampleRate := fs.Float64P("sample-rate", "s", 0, "override input sample rate in Hz")
	prnList := fs.StringP("prns", "p", "", "comma-separated PRN list to acquire (default 1..32)")
	diagDir := fs.StringP("output", "o", "", "diagnostic output directory")
	biasTee := fs.BoolP("bias-tee", "b", false, "enable the tuner's bias-tee to power an external LNA")
	logLevel := fs.StringP("verbosity", "v", "", "log level: debug, info, warn, error")
	configFile := fs.StringP("config", "c", "", "optional YAML configuration file overlay")
	help := fs.BoolP("help", "?", false, "display help text")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gnssrecv [-f file | -d | -h host[:port]] [options]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if *help {
		fs.Usage()
		return nil, errHelpRequested
	}

	cfg := &Config{LogLevel: *logLevel, ConfigFile: *configFile, DiagDir: *diagDir, GainTenthDb: -1, BiasTee: *biasTee}

	if err := resolveInput(cfg, *filePath, *localTuner, *remoteHost); err != nil {
		return nil, err
	}

	enc, err := iq.ParseEncoding(*encodingStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg.Encoding = enc
	cfg.SampleRateHz = *sampleRate

	prns, err := parsePRNList(*prnList)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg.PRNs = prns

	if *configFile != "" {
		if err := applyOverlay(cfg, *configFile); err != nil {
			return nil, err
		}
		if fs.Changed("type") {
			cfg.Encoding = enc
		}
	}

	return cfg, nil
}

func resolveInput(cfg *Config, filePath string, localTuner bool, remoteHost string) error {
	set := 0
	if filePath != "" {
		set++
	}
	if localTuner {
		set++
	}
	if remoteHost != "" {
		set++
	}
	switch {
	case set == 0:
		return fmt.Errorf("%w: exactly one of -f, -d, -h is required", errUsage)
	case set > 1:
		return fmt.Errorf("%w: -f, -d, -h are mutually exclusive", errUsage)
	}

	switch {
	case filePath != "":
		cfg.InputKind = InputFile
		cfg.InputPath = filePath
	case localTuner:
		cfg.InputKind = InputLocalTuner
	case remoteHost != "":
		cfg.InputKind = InputRemoteTCP
		cfg.RemoteAddr = remoteHost
	}
	return nil
}

func parsePRNList(s string) ([]int, error) {
	if s == "" {
		prns := make([]int, 32)
		for i := range prns {
			prns[i] = i + 1
		}
		return prns, nil
	}

	parts := strings.Split(s, ",")
	prns := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PRN %q: %w", p, err)
		}
		if n < 1 || n > 32 {
			return nil, fmt.Errorf("PRN %d out of range 1..32", n)
		}
		prns = append(prns, n)
	}
	return prns, nil
}

func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file %s: %v", errUsage, path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", errUsage, path, err)
	}

	if overlay.DeviceGainTenthDb != nil {
		cfg.GainTenthDb = *overlay.DeviceGainTenthDb
	} else {
		cfg.GainTenthDb = -1 // AGC by default
	}
	if overlay.DiagnosticInterval != nil {
		cfg.DiagInterval = *overlay.DiagnosticInterval
	}
	if len(overlay.PRNs) > 0 && len(cfg.PRNs) == 32 {
		// Only let the file narrow the PRN set if the command line
		// left it at its "everything" default.
		cfg.PRNs = overlay.PRNs
	}
	if overlay.SampleEncoding != "" {
		enc, err := iq.ParseEncoding(overlay.SampleEncoding)
		if err == nil {
			cfg.Encoding = enc
		}
	}
	return nil
}
