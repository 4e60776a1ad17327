package calculatecpnscore

import (
	"time"

	"cpn-workers/internal/common/config"
	"cpn-workers/internal/scoring"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	Scoring       scoring.Options
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Scoring:       scoring.DefaultOptions(),
	}
}

// ConfigFromApp overlays the workers.<task-type> and scoring sections on the defaults.
func ConfigFromApp(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if workerCfg, ok := appConfig.Workers[TaskType]; ok {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
		}
	}

	s := appConfig.Scoring
	cfg.Scoring = scoring.Options{
		Weights: scoring.Weights{
			CostEfficiency: s.Weights.CostEfficiency,
			TimeManagement: s.Weights.TimeManagement,
			SuccessRate:    s.Weights.SuccessRate,
		},
		TargetCostPerNut:    s.TargetCostPerNut,
		TargetMinutesPerNut: s.TargetMinutesPerNut,
	}
	return cfg
}
