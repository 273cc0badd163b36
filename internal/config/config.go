package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds settings that are tedious to pass as flags on every scan.
type Config struct {
	Serp    SerpConfig    `mapstructure:"serp"`
	Places  PlacesConfig  `mapstructure:"places"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Storage StorageConfig `mapstructure:"storage"`
}

type SerpConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Lang    string `mapstructure:"lang"`
	Country string `mapstructure:"country"`
}

type PlacesConfig struct {
	APIKey  string `mapstructure:"api_key"`
	RadiusM int    `mapstructure:"radius_m"`
}

type ScanConfig struct {
	Concurrency   int     `mapstructure:"concurrency"`
	RatePerSecond float64 `mapstructure:"rate"`
	Burst         int     `mapstructure:"burst"`
	TimeoutSec    int     `mapstructure:"timeout_sec"`
	Shape         string  `mapstructure:"shape"`
	RadiusKm      float64 `mapstructure:"radius_km"`
	SpacingKm     float64 `mapstructure:"spacing_km"`
}

type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads configuration from an optional geogrid.yaml and GEOGRID_*
// environment variables. path, when set, names the config file explicitly
// and must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Keys need a default for AutomaticEnv to reach them in Unmarshal.
	v.SetDefault("serp.api_key", "")
	v.SetDefault("places.api_key", "")
	v.SetDefault("serp.lang", "en")
	v.SetDefault("serp.country", "us")
	v.SetDefault("places.radius_m", 1000)
	v.SetDefault("scan.concurrency", 2)
	v.SetDefault("scan.rate", 2.0)
	v.SetDefault("scan.burst", 1)
	v.SetDefault("scan.timeout_sec", 15)
	v.SetDefault("scan.shape", "circle")
	v.SetDefault("scan.radius_km", 3.0)
	v.SetDefault("scan.spacing_km", 1.0)
	v.SetDefault("storage.output_dir", "./scans")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("geogrid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/geogrid")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("GEOGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}
