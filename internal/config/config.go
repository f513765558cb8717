// Package config loads tunables for the recognition engine from compiled
// defaults, an optional YAML file, and the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in the specification's configuration
// table. The yaml tag names each field's key in the YAML file and the env tag
// names its environment variable; Load reads each variable with an explicit
// call per field.
type Config struct {
	SR  int `yaml:"sr" env:"SR"`
	FFT int `yaml:"n_fft" env:"N_FFT"`
	Hop int `yaml:"hop" env:"HOP"`

	PeakNeighborhood int     `yaml:"peak_neighborhood" env:"PEAK_NEIGHBORHOOD"`
	MinAmp           float64 `yaml:"min_amp" env:"MIN_AMP"`
	FPReduction      int     `yaml:"fp_reduction" env:"FP_REDUCTION"`

	ZoneStart int `yaml:"zone_start" env:"ZONE_START"`
	ZoneWidth int `yaml:"zone_width" env:"ZONE_WIDTH"`
	MaxPairs  int `yaml:"max_pairs" env:"MAX_PAIRS"`

	MinVotes        int     `yaml:"min_votes" env:"MIN_VOTES"`
	SimThresholdLow float64 `yaml:"sim_threshold_low" env:"SIM_THRESHOLD_LOW"`
	SimTopN         int     `yaml:"sim_top_n" env:"SIM_TOP_N"`
	SoftmaxTemp     float64 `yaml:"softmax_temp" env:"SOFTMAX_TEMP"`

	TaskTimeoutSec int `yaml:"task_timeout_sec" env:"TASK_TIMEOUT_SEC"`
	ResultTTLSec   int `yaml:"result_ttl_sec" env:"RESULT_TTL_SEC"`

	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`
}

// Defaults returns the compiled-in configuration from the specification's
// table in §6.
func Defaults() Config {
	return Config{
		SR:  22050,
		FFT: 4096,
		Hop: 2048,

		PeakNeighborhood: 20,
		MinAmp:           0.01,
		FPReduction:      20,

		ZoneStart: 5,
		ZoneWidth: 100,
		MaxPairs:  3,

		MinVotes:        5,
		SimThresholdLow: 0.30,
		SimTopN:         10,
		SoftmaxTemp:     0.05,

		TaskTimeoutSec: 60,
		ResultTTLSec:   3600,

		RedisAddr: "localhost:6379",
	}
}

// Load layers the compiled defaults, an optional YAML file at yamlPath (if
// it exists), and environment variables (with .env picked up via godotenv)
// in that order — each layer overrides the one before it.
func Load(yamlPath string) (Config, error) {
	cfg := Defaults()

	if yamlPath != "" {
		if data, err := os.ReadFile(yamlPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parsing %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: reading %s: %w", yamlPath, err)
		}
	}

	_ = godotenv.Load() // best effort, .env is optional

	applyEnvInt(&cfg.SR, "SR")
	applyEnvInt(&cfg.FFT, "N_FFT")
	applyEnvInt(&cfg.Hop, "HOP")
	applyEnvInt(&cfg.PeakNeighborhood, "PEAK_NEIGHBORHOOD")
	applyEnvFloat(&cfg.MinAmp, "MIN_AMP")
	applyEnvInt(&cfg.FPReduction, "FP_REDUCTION")
	applyEnvInt(&cfg.ZoneStart, "ZONE_START")
	applyEnvInt(&cfg.ZoneWidth, "ZONE_WIDTH")
	applyEnvInt(&cfg.MaxPairs, "MAX_PAIRS")
	applyEnvInt(&cfg.MinVotes, "MIN_VOTES")
	applyEnvFloat(&cfg.SimThresholdLow, "SIM_THRESHOLD_LOW")
	applyEnvInt(&cfg.SimTopN, "SIM_TOP_N")
	applyEnvFloat(&cfg.SoftmaxTemp, "SOFTMAX_TEMP")
	applyEnvInt(&cfg.TaskTimeoutSec, "TASK_TIMEOUT_SEC")
	applyEnvInt(&cfg.ResultTTLSec, "RESULT_TTL_SEC")
	applyEnvString(&cfg.DatabaseURL, "DATABASE_URL")
	applyEnvString(&cfg.RedisAddr, "REDIS_ADDR")

	return cfg, nil
}

func applyEnvInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyEnvFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func applyEnvString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
