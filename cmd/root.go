package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/airloom-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/airloom-cli/internal/config"
	"github.com/KaramelBytes/airloom-cli/internal/dataset"
	"github.com/KaramelBytes/airloom-cli/internal/export"
	"github.com/KaramelBytes/airloom-cli/internal/logging"
	"github.com/KaramelBytes/airloom-cli/internal/stations"
	"github.com/KaramelBytes/airloom-cli/internal/utils"
)

var (
	// Global flags
	cfgFile   string
	dataPath  string
	sheetName string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *slog.Logger
	loader *dataset.Loader
)

var rootCmd = &cobra.Command{
	Use:   "airloom",
	Short: "AirLoom CLI: air-quality analytics over station-hour observations",
	Long: `AirLoom loads hourly air-quality observations (CSV or XLSX) from the Beijing
monitoring network and computes monthly trends, latest readings, correlations,
k-means clusters, per-station severity maps and distributions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.airloom/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "observations file (.csv or .xlsx; overrides data_path)")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "worksheet to read from .xlsx input (default first sheet)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides log_format)")
}

func loadConfig() {
	// .env is optional; it only seeds AIRLOOM_* variables
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	if debug {
		level = slog.LevelDebug
	}
	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	l, err := logging.New(level, format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		l, _ = logging.New(level, "text", os.Stderr)
	}
	logger = l
	if loader == nil {
		loader = dataset.NewLoader(logger)
	}
}

// settings returns the loaded config, or defaults when no initializer ran.
func settings() *cfgpkg.Global {
	if cfg == nil {
		cfg = cfgpkg.Default()
	}
	return cfg
}

func appLogger() *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

// loadTable reads the observations file named by --data or data_path.
func loadTable() (*dataset.Table, error) {
	c := settings()
	path := dataPath
	if path == "" {
		path = c.DataPath
	}
	if path == "" {
		return nil, errors.New("no dataset: pass --data <file> or run 'airloom config set data_path <file>'")
	}
	return dataLoader().Load(path)
}

// dataLoader returns the shared loader with the configured worksheet.
func dataLoader() *dataset.Loader {
	if loader == nil {
		loader = dataset.NewLoader(appLogger())
	}
	loader.Sheet = settings().Sheet
	if sheetName != "" {
		loader.Sheet = sheetName
	}
	return loader
}

// loadReference returns the station reference from stations_file or the
// built-in Beijing set.
func loadReference() (*stations.Reference, error) {
	if p := settings().StationsFile; p != "" {
		return stations.LoadFile(p)
	}
	return stations.Default(), nil
}

var aggregator = analysis.NewAggregator(nil)

// filterFlags are the --station/--year selectors shared by most commands.
type filterFlags struct {
	station string
	year    int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.station, "station", "", "restrict to one station")
	cmd.Flags().IntVar(&f.year, "year", 0, "restrict to one calendar year")
}

func (f *filterFlags) filter() dataset.Filter {
	return dataset.Filter{Station: strings.TrimSpace(f.station), Year: f.year}
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// warnEmpty prints the empty-selection notice. Empty selections are not errors.
func warnEmpty(w io.Writer, f dataset.Filter) {
	fmt.Fprintf(w, "⚠ No observations match %s\n", f)
}

// printFrames renders frames as Markdown tables.
func printFrames(w io.Writer, frames ...export.Frame) error {
	for i, fr := range frames {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if fr.Name != "" {
			fmt.Fprintf(w, "[%s]\n", strings.ToUpper(fr.Name))
		}
		if err := export.WriteMarkdown(w, fr); err != nil {
			return err
		}
	}
	return nil
}

// writeOutput saves frames to path. CSV holds a single table, so only the
// first frame is written there.
func writeOutput(w io.Writer, path string, frames ...export.Frame) error {
	if strings.EqualFold(filepath.Ext(path), ".csv") && len(frames) > 1 {
		frames = frames[:1]
	}
	if err := export.WriteFile(path, frames...); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}

// writeText saves a rendered Markdown document.
func writeText(w io.Writer, path, text string) error {
	if err := utils.SafeWriteFile(path, []byte(text)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}
