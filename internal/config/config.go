package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings shared by the bankd and teller binaries.
type Config struct {
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	MetricsAddr        string        `mapstructure:"METRICS_ADDR"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	SigningSecret      string        `mapstructure:"SIGNING_SECRET"`
	StatementSchedule  string        `mapstructure:"STATEMENT_SCHEDULE"`
	SeedAccountsFile   string        `mapstructure:"SEED_ACCOUNTS_FILE"`
	SeedActivitiesFile string        `mapstructure:"SEED_ACTIVITIES_FILE"`
	NotifyWorkers      int           `mapstructure:"NOTIFY_WORKERS"`
	NotifyQueueSize    int           `mapstructure:"NOTIFY_QUEUE_SIZE"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var flagKeys = map[string]string{
	"http-addr":       "HTTP_ADDR",
	"metrics-addr":    "METRICS_ADDR",
	"log-level":       "LOG_LEVEL",
	"seed-accounts":   "SEED_ACCOUNTS_FILE",
	"seed-activities": "SEED_ACTIVITIES_FILE",
}

// Flags returns the command line flags Load understands.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("http-addr", "", "address of the HTTP API")
	fs.String("metrics-addr", "", "address of the Prometheus endpoint")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("seed-accounts", "", "accounts file opened at startup")
	fs.String("seed-activities", "", "activities file posted at startup")
	fs.String("env-file", "", "extra .env file loaded before the environment is read")
	return fs
}

// Load reads configuration in increasing priority: defaults, a .env file in
// the working directory, the environment, then any flag that was set.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if flags != nil {
		if envFile, _ := flags.GetString("env-file"); envFile != "" {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("METRICS_ADDR", ":9090")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SIGNING_SECRET", "")
	viper.SetDefault("STATEMENT_SCHEDULE", "0 0 1 * *") // midnight on the first of the month
	viper.SetDefault("SEED_ACCOUNTS_FILE", "")
	viper.SetDefault("SEED_ACTIVITIES_FILE", "")
	viper.SetDefault("NOTIFY_WORKERS", 2)
	viper.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	viper.SetDefault("REQUEST_TIMEOUT", "30s")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := viper.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if config.NotifyWorkers < 1 {
		return nil, fmt.Errorf("NOTIFY_WORKERS must be at least 1, got %d", config.NotifyWorkers)
	}
	if config.NotifyQueueSize < 1 {
		return nil, fmt.Errorf("NOTIFY_QUEUE_SIZE must be at least 1, got %d", config.NotifyQueueSize)
	}
	return &config, nil
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
