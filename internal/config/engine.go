package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/common"
	"github.com/Veraticus/spicecat/internal/taxonomy"
)

// DatabasePath returns the expanded database.path setting.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDatabasePath
	}
	return ExpandPath(path)
}

// LoadEngineConfig reads the classification.* keys on top of the defaults.
func LoadEngineConfig() (classify.Config, error) {
	cfg := classify.DefaultConfig()

	if viper.IsSet("classification.workers") {
		cfg.Workers = viper.GetInt("classification.workers")
	}
	if viper.IsSet("classification.max_bulk") {
		cfg.MaxBulkSize = viper.GetInt("classification.max_bulk")
	}
	cfg.Strict = viper.GetBool("classification.strict")

	if cfg.Workers <= 0 {
		return cfg, fmt.Errorf("%w: classification.workers must be positive, got %d", common.ErrInvalidConfig, cfg.Workers)
	}
	if cfg.MaxBulkSize <= 0 {
		return cfg, fmt.Errorf("%w: classification.max_bulk must be positive, got %d", common.ErrInvalidConfig, cfg.MaxBulkSize)
	}
	return cfg, nil
}

// LoadRules returns the rule set named by rules.path, or the built-in one.
func LoadRules() (*taxonomy.RuleSet, error) {
	path := viper.GetString("rules.path")
	if path == "" {
		return taxonomy.Default(), nil
	}
	rules, err := taxonomy.Load(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", path, err)
	}
	return rules, nil
}
