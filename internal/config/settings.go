package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fakturownik/fakturownik/internal/logger"
)

// Settings holds runtime settings read from FAKTUROWNIK_* environment
// variables. They complement the project file and override it where both
// apply.
type Settings struct {
	Log    logger.LogConfig
	Server ServerSettings
	Rates  RateSettings
}

// ServerSettings holds HTTP server settings for `serve`.
type ServerSettings struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string // gin mode: debug, release or test
}

// RateSettings overrides the project's exchange rate provider.
type RateSettings struct {
	BaseURL string        // empty = use the project file
	Timeout time.Duration // zero = use the project file
}

// LoadSettings reads settings from the environment with defaults applied.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("FAKTUROWNIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.time_format", time.RFC3339)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.mode", "release")

	v.SetDefault("rates.base_url", "")
	v.SetDefault("rates.timeout", "0s")

	envBindings := map[string]string{
		"log.level":            "FAKTUROWNIK_LOG_LEVEL",
		"log.format":           "FAKTUROWNIK_LOG_FORMAT",
		"log.output":           "FAKTUROWNIK_LOG_OUTPUT",
		"log.time_format":      "FAKTUROWNIK_LOG_TIME_FORMAT",
		"server.addr":          "FAKTUROWNIK_SERVER_ADDR",
		"server.read_timeout":  "FAKTUROWNIK_SERVER_READ_TIMEOUT",
		"server.write_timeout": "FAKTUROWNIK_SERVER_WRITE_TIMEOUT",
		"server.mode":          "FAKTUROWNIK_SERVER_MODE",
		"rates.base_url":       "FAKTUROWNIK_RATES_BASE_URL",
		"rates.timeout":        "FAKTUROWNIK_RATES_TIMEOUT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	switch mode := v.GetString("server.mode"); mode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("server.mode: unknown value %q", mode)
	}

	return &Settings{
		Log: logger.LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
		},
		Server: ServerSettings{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			Mode:         v.GetString("server.mode"),
		},
		Rates: RateSettings{
			BaseURL: v.GetString("rates.base_url"),
			Timeout: v.GetDuration("rates.timeout"),
		},
	}, nil
}
