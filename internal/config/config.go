package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ground operations daemon
type Config struct {
	AircraftSlots int
	GateCount     int
	LocalAirport  string
	DBPath        string
	BatchSize     int
	BatchTimeout  int // seconds
	MetricsAddr   string
	Radar         RadarConfig
	Operations    OperationsConfig
	Log           LogConfig
}

// RadarConfig controls the simulated detector
type RadarConfig struct {
	Interval     int      // seconds between detections
	TrafficFiles []string // CSV files replayed before falling back to generated traffic
	LocalRatio   float64  // share of generated flights that land locally
}

// OperationsConfig controls the headless traffic driver
type OperationsConfig struct {
	Enabled          bool
	Interval         int     // seconds between steps
	LostContactTicks int     // ticks an aircraft stays on radar after leaving
	FaultRate        float64 // chance of a fault report at each inspection
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level     string
	Format    string
	File      string // empty logs to stdout
	MaxSizeMB int
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("aircraft_slots", 10)
	v.SetDefault("gate_count", 4)
	v.SetDefault("local_airport", "Stormy Weather")
	v.SetDefault("db_path", "ground_ops.db")
	v.SetDefault("batch_size", 100)
	v.SetDefault("batch_timeout", 1)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("radar.interval", 5)
	v.SetDefault("radar.traffic_files", []string{})
	v.SetDefault("radar.local_ratio", 0.6)
	v.SetDefault("operations.enabled", true)
	v.SetDefault("operations.interval", 2)
	v.SetDefault("operations.lost_contact_ticks", 3)
	v.SetDefault("operations.fault_rate", 0.1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 32)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/ground_ops")
	v.AddConfigPath(".")

	// Set by main from the -config flag
	if configPath := os.Getenv("GROUND_OPS_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults + env vars
	}

	v.SetEnvPrefix("GROUND_OPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		AircraftSlots: v.GetInt("aircraft_slots"),
		GateCount:     v.GetInt("gate_count"),
		LocalAirport:  v.GetString("local_airport"),
		DBPath:        v.GetString("db_path"),
		BatchSize:     v.GetInt("batch_size"),
		BatchTimeout:  v.GetInt("batch_timeout"),
		MetricsAddr:   v.GetString("metrics_addr"),
		Radar: RadarConfig{
			Interval:     v.GetInt("radar.interval"),
			TrafficFiles: v.GetStringSlice("radar.traffic_files"),
			LocalRatio:   v.GetFloat64("radar.local_ratio"),
		},
		Operations: OperationsConfig{
			Enabled:          v.GetBool("operations.enabled"),
			Interval:         v.GetInt("operations.interval"),
			LostContactTicks: v.GetInt("operations.lost_contact_ticks"),
			FaultRate:        v.GetFloat64("operations.fault_rate"),
		},
		Log: LogConfig{
			Level:     v.GetString("log.level"),
			Format:    v.GetString("log.format"),
			File:      v.GetString("log.file"),
			MaxSizeMB: v.GetInt("log.max_size_mb"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.AircraftSlots <= 0 {
		return fmt.Errorf("aircraft_slots must be greater than 0")
	}

	if cfg.GateCount <= 0 {
		return fmt.Errorf("gate_count must be greater than 0")
	}

	if strings.TrimSpace(cfg.LocalAirport) == "" {
		return fmt.Errorf("local_airport is required")
	}

	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be greater than 0")
	}

	if cfg.BatchTimeout <= 0 {
		return fmt.Errorf("batch_timeout must be greater than 0")
	}

	if cfg.Radar.Interval <= 0 {
		return fmt.Errorf("radar.interval must be greater than 0")
	}

	if cfg.Radar.LocalRatio < 0 || cfg.Radar.LocalRatio > 1 {
		return fmt.Errorf("radar.local_ratio must be between 0 and 1")
	}

	if cfg.Operations.Interval <= 0 {
		return fmt.Errorf("operations.interval must be greater than 0")
	}

	if cfg.Operations.LostContactTicks < 0 {
		return fmt.Errorf("operations.lost_contact_ticks must not be negative")
	}

	if cfg.Operations.FaultRate < 0 || cfg.Operations.FaultRate > 1 {
		return fmt.Errorf("operations.fault_rate must be between 0 and 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be greater than 0 when log.file is set")
	}

	return nil
}
