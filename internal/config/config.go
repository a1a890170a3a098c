package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the tunables for the forensic detection pipeline. There is
// no server, database, or broker configuration here: the pipeline is an
// in-process batch operation over one transaction set.
type Config struct {
	Environment string        `mapstructure:"environment"`
	Pipeline    PipelineConfig `mapstructure:"pipeline"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// PipelineConfig holds the detection thresholds spec'd in §4 of the
// forensic detection pipeline design.
type PipelineConfig struct {
	CycleMinLength          int     `mapstructure:"cycle_min_length"`
	CycleMaxLength          int     `mapstructure:"cycle_max_length"`
	CycleBudget             int     `mapstructure:"cycle_budget"`
	CycleConsistencyRatio   float64 `mapstructure:"cycle_consistency_ratio"`
	CycleConsistencyBonus   float64 `mapstructure:"cycle_consistency_bonus"`

	SmurfingMinDegree       int     `mapstructure:"smurfing_min_degree"`
	SmurfingWindowHours     float64 `mapstructure:"smurfing_window_hours"`
	SmurfingMinMembers      int     `mapstructure:"smurfing_min_members"`
	SmurfingBaseRisk        float64 `mapstructure:"smurfing_base_risk"`

	ShellMinDegree          int `mapstructure:"shell_min_degree"`
	ShellMaxDegree          int `mapstructure:"shell_max_degree"`
	ShellRiskScore          float64 `mapstructure:"shell_risk_score"`

	WhitelistMinOutDegree   int `mapstructure:"whitelist_min_out_degree"`
	WhitelistMaxUniqueDays  int `mapstructure:"whitelist_max_unique_days"`

	CentralitySampleCap     int     `mapstructure:"centrality_sample_cap"`
	CentralityBridgeMin     float64 `mapstructure:"centrality_bridge_min"`
	CentralityBoost         float64 `mapstructure:"centrality_boost"`
	CentralityBridgeScoreMin float64 `mapstructure:"centrality_bridge_score_min"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files,
// falling back to the spec-mandated defaults when nothing is set.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/forensics-engine")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("FORENSICS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the spec-mandated defaults without touching the
// environment or any config file. Tests use this directly; Load seeds
// viper's defaults from it.
func Default() Config {
	return Config{
		Environment: "development",
		Pipeline: PipelineConfig{
			CycleMinLength:        3,
			CycleMaxLength:        5,
			CycleBudget:           5000,
			CycleConsistencyRatio: 0.2,
			CycleConsistencyBonus: 20,

			SmurfingMinDegree:   10,
			SmurfingWindowHours: 72,
			SmurfingMinMembers:  2,
			SmurfingBaseRisk:    70,

			ShellMinDegree: 2,
			ShellMaxDegree: 3,
			ShellRiskScore: 85.0,

			WhitelistMinOutDegree:  20,
			WhitelistMaxUniqueDays: 2,

			CentralitySampleCap:      50,
			CentralityBridgeMin:      0.1,
			CentralityBoost:          15,
			CentralityBridgeScoreMin: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func setDefaults() {
	d := Default()

	viper.SetDefault("environment", d.Environment)

	viper.SetDefault("pipeline.cycle_min_length", d.Pipeline.CycleMinLength)
	viper.SetDefault("pipeline.cycle_max_length", d.Pipeline.CycleMaxLength)
	viper.SetDefault("pipeline.cycle_budget", d.Pipeline.CycleBudget)
	viper.SetDefault("pipeline.cycle_consistency_ratio", d.Pipeline.CycleConsistencyRatio)
	viper.SetDefault("pipeline.cycle_consistency_bonus", d.Pipeline.CycleConsistencyBonus)

	viper.SetDefault("pipeline.smurfing_min_degree", d.Pipeline.SmurfingMinDegree)
	viper.SetDefault("pipeline.smurfing_window_hours", d.Pipeline.SmurfingWindowHours)
	viper.SetDefault("pipeline.smurfing_min_members", d.Pipeline.SmurfingMinMembers)
	viper.SetDefault("pipeline.smurfing_base_risk", d.Pipeline.SmurfingBaseRisk)

	viper.SetDefault("pipeline.shell_min_degree", d.Pipeline.ShellMinDegree)
	viper.SetDefault("pipeline.shell_max_degree", d.Pipeline.ShellMaxDegree)
	viper.SetDefault("pipeline.shell_risk_score", d.Pipeline.ShellRiskScore)

	viper.SetDefault("pipeline.whitelist_min_out_degree", d.Pipeline.WhitelistMinOutDegree)
	viper.SetDefault("pipeline.whitelist_max_unique_days", d.Pipeline.WhitelistMaxUniqueDays)

	viper.SetDefault("pipeline.centrality_sample_cap", d.Pipeline.CentralitySampleCap)
	viper.SetDefault("pipeline.centrality_bridge_min", d.Pipeline.CentralityBridgeMin)
	viper.SetDefault("pipeline.centrality_boost", d.Pipeline.CentralityBoost)
	viper.SetDefault("pipeline.centrality_bridge_score_min", d.Pipeline.CentralityBridgeScoreMin)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
}

func validateConfig(cfg *Config) error {
	p := cfg.Pipeline

	if p.CycleMinLength <= 0 || p.CycleMaxLength < p.CycleMinLength {
		return fmt.Errorf("invalid cycle length window: [%d, %d]", p.CycleMinLength, p.CycleMaxLength)
	}

	if p.CycleBudget <= 0 {
		return fmt.Errorf("cycle_budget must be positive")
	}

	if p.SmurfingMinDegree <= 0 {
		return fmt.Errorf("smurfing_min_degree must be positive")
	}

	if p.SmurfingWindowHours <= 0 {
		return fmt.Errorf("smurfing_window_hours must be positive")
	}

	if p.ShellMinDegree <= 0 || p.ShellMaxDegree < p.ShellMinDegree {
		return fmt.Errorf("invalid shell degree window: [%d, %d]", p.ShellMinDegree, p.ShellMaxDegree)
	}

	if p.WhitelistMinOutDegree <= 0 {
		return fmt.Errorf("whitelist_min_out_degree must be positive")
	}

	if p.CentralitySampleCap <= 0 {
		return fmt.Errorf("centrality_sample_cap must be positive")
	}

	return nil
}
