package config

import (
	"os"
	"strings"

	"github.com/siegewar/perfctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval      = 1000
	defaultSiegeInterval = 500
	defaultHistorySize   = 300
	defaultTargetFPS     = 60
	defaultMemoryBudget  = 8192
	defaultStrategy      = "safe"
	defaultDatabase      = "/var/lib/perfctl/perfctl.db"
)

// Config holds the daemon configuration after merging file, environment
// and command line sources.
type Config struct {
	Interval       int     `mapstructure:"interval"`       // collector tick in milliseconds
	SiegeInterval  int     `mapstructure:"siege_interval"` // siege monitor tick in milliseconds
	HistorySize    int     `mapstructure:"history_size"`   // rolling history capacity
	Strategy       string  `mapstructure:"strategy"`       // safe, bold or experimental
	AutoOptimize   bool    `mapstructure:"auto_optimize"`  // apply optimizations on critical alerts
	Experimental   bool    `mapstructure:"experimental"`   // allow experimental-tier actions
	RevertOnExit   bool    `mapstructure:"revert_on_exit"` // restore overridden settings on shutdown
	TargetFPS      float64 `mapstructure:"target_fps"`
	MemoryBudgetMB float64 `mapstructure:"memory_budget_mb"`
	Monitor        bool    `mapstructure:"monitor"` // sample and alert only, never mutate settings
	Telemetry      bool    `mapstructure:"telemetry"`
	Database       string  `mapstructure:"database"`
	ReportPath     string  `mapstructure:"report_path"`
	MirrorListen   string  `mapstructure:"mirror_listen"` // websocket mirror address, empty disables
	LogLevel       string  `mapstructure:"log_level"`
	Debug          bool    `mapstructure:"debug"`
	Verbose        bool    `mapstructure:"verbose"`
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warning": true,
	"error":   true,
}

var validStrategies = map[string]bool{
	"safe":         true,
	"bold":         true,
	"experimental": true,
}

// Load reads configuration from the config file, environment and flags.
// Flags take precedence over file values, file values over defaults.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet("perfctl", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Int("interval", defaultInterval, "Collector sampling interval in milliseconds")
	flags.Int("siege-interval", defaultSiegeInterval, "Siege monitor sampling interval in milliseconds")
	flags.String("strategy", defaultStrategy, "Optimization strategy: safe, bold or experimental")
	flags.Bool("auto-optimize", true, "Apply optimizations automatically on critical alerts")
	flags.Bool("experimental", false, "Enable experimental-tier optimizations")
	flags.Bool("monitor", false, "Only monitor and alert, never mutate settings")
	flags.Bool("telemetry", false, "Archive per-tick snapshots to the database")
	flags.String("database", defaultDatabase, "Path to the sqlite database")
	flags.String("mirror-listen", "", "Listen address for the websocket mirror")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Load configuration file, if one exists
	if path := os.Getenv("PERFCTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("perfctl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	}

	// Explicitly set flags override file values
	flags.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("siege_interval", defaultSiegeInterval)
	v.SetDefault("history_size", defaultHistorySize)
	v.SetDefault("strategy", defaultStrategy)
	v.SetDefault("auto_optimize", true)
	v.SetDefault("experimental", false)
	v.SetDefault("revert_on_exit", true)
	v.SetDefault("target_fps", defaultTargetFPS)
	v.SetDefault("memory_budget_mb", defaultMemoryBudget)
	v.SetDefault("monitor", false)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("report_path", "")
	v.SetDefault("mirror_listen", "")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
}

func validate(c *Config) error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.SiegeInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.SiegeInterval)
	}
	if c.HistorySize <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "history_size must be positive")
	}
	if !validStrategies[c.Strategy] {
		return errFactory.WithData(errors.ErrInvalidStrategy, c.Strategy)
	}
	if !validLogLevels[c.LogLevel] {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
