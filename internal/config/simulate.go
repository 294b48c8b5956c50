package config

import "github.com/spf13/pflag"

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	Pool              PoolConfig
	Store             StoreConfig
	Script            string
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	StopOnError       bool
	Caller            string
	StartTime         string
	MetricsOut        string
	LogLevel          string
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	defaults := poolDefaults()
	defaults["out"] = "./data/events.jsonl"
	defaults["checkpoint"] = "./data/sim_checkpoint.json"
	defaults["checkpoint-enabled"] = true

	v, err := load(cfgFile, flags, defaults)
	if err != nil {
		return SimulateConfig{}, err
	}

	return SimulateConfig{
		Pool:              loadPool(v),
		Store:             loadStore(v),
		Script:            v.GetString("script"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		StopOnError:       v.GetBool("stop-on-error"),
		Caller:            v.GetString("caller"),
		StartTime:         v.GetString("start-time"),
		MetricsOut:        v.GetString("metrics-out"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}
