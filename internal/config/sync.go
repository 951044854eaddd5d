package config

import (
	"github.com/spf13/pflag"
)

// SyncConfig holds configuration for the sync command.
type SyncConfig struct {
	Config
	PGDSN     string
	Out       string
	StateFile string
	Addresses []string
	Force     bool
}

// LoadSync merges config file, environment variables, and flags into SyncConfig.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"out":   "./data/projections.jsonl",
		"force": false,
	})
	if err != nil {
		return SyncConfig{}, err
	}

	return SyncConfig{
		Config:    baseConfig(v),
		PGDSN:     v.GetString("pg-dsn"),
		Out:       v.GetString("out"),
		StateFile: v.GetString("state-file"),
		Addresses: getStringSlice(v, "address"),
		Force:     v.GetBool("force"),
	}, nil
}
