package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/airloom-cli/internal/utils"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. AIRLOOM_DATA_PATH.
const EnvPrefix = "AIRLOOM"

// Global configuration structure.
type Global struct {
	DataPath     string `mapstructure:"data_path" yaml:"data_path"`
	Sheet        string `mapstructure:"sheet" yaml:"sheet,omitempty"`
	StationsFile string `mapstructure:"stations_file" yaml:"stations_file,omitempty"`

	// Clustering
	ClusterK        int    `mapstructure:"cluster_k" yaml:"cluster_k"`
	ClusterSeed     int64  `mapstructure:"cluster_seed" yaml:"cluster_seed"`
	ClusterRestarts int    `mapstructure:"cluster_restarts" yaml:"cluster_restarts"`
	ClusterMaxIter  int    `mapstructure:"cluster_max_iter" yaml:"cluster_max_iter"`
	ClusterFeatures string `mapstructure:"cluster_features" yaml:"cluster_features"`

	// Views
	HistBins   int `mapstructure:"hist_bins" yaml:"hist_bins"`
	LatestRows int `mapstructure:"latest_rows" yaml:"latest_rows"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"data_path", "sheet", "stations_file",
	"cluster_k", "cluster_seed", "cluster_restarts", "cluster_max_iter", "cluster_features",
	"hist_bins", "latest_rows",
	"log_level", "log_format",
}

// Dir returns ~/.airloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".airloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.airloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; a broken one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "")
	v.SetDefault("sheet", "")
	v.SetDefault("stations_file", "")
	v.SetDefault("cluster_k", 3)
	v.SetDefault("cluster_seed", 42)
	v.SetDefault("cluster_restarts", 10)
	v.SetDefault("cluster_max_iter", 300)
	v.SetDefault("cluster_features", "full")
	v.SetDefault("hist_bins", 30)
	v.SetDefault("latest_rows", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Default returns the built-in configuration without reading any file or
// environment.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "data_path":
		return c.DataPath, nil
	case "sheet":
		return c.Sheet, nil
	case "stations_file":
		return c.StationsFile, nil
	case "cluster_k":
		return strconv.Itoa(c.ClusterK), nil
	case "cluster_seed":
		return strconv.FormatInt(c.ClusterSeed, 10), nil
	case "cluster_restarts":
		return strconv.Itoa(c.ClusterRestarts), nil
	case "cluster_max_iter":
		return strconv.Itoa(c.ClusterMaxIter), nil
	case "cluster_features":
		return c.ClusterFeatures, nil
	case "hist_bins":
		return strconv.Itoa(c.HistBins), nil
	case "latest_rows":
		return strconv.Itoa(c.LatestRows), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "data_path":
		c.DataPath = val
	case "sheet":
		c.Sheet = val
	case "stations_file":
		c.StationsFile = val
	case "cluster_k":
		return setPositive(&c.ClusterK, key, val)
	case "cluster_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for cluster_seed: %v", val)
		}
		c.ClusterSeed = i
	case "cluster_restarts":
		return setPositive(&c.ClusterRestarts, key, val)
	case "cluster_max_iter":
		return setPositive(&c.ClusterMaxIter, key, val)
	case "cluster_features":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("invalid cluster_features: empty")
		}
		c.ClusterFeatures = val
	case "hist_bins":
		return setPositive(&c.HistBins, key, val)
	case "latest_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for latest_rows: %v", val)
		}
		c.LatestRows = i
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setPositive(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return fmt.Errorf("invalid int for %s: %v (must be > 0)", key, val)
	}
	*dst = i
	return nil
}
