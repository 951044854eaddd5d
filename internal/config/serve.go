package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Config
	Listen            string
	MetricsListen     string
	MarketsInterval   time.Duration
	PortfolioInterval time.Duration
	StrategyInterval  time.Duration
	AdminInterval     time.Duration
	RedisAddr         string
	MetadataTTL       time.Duration
	Identities        []string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"listen":             ":8080",
		"metrics-listen":     ":9095",
		"markets-interval":   4 * time.Second,
		"portfolio-interval": 6 * time.Second,
		"strategy-interval":  4 * time.Second,
		"admin-interval":     10 * time.Second,
		"metadata-ttl":       time.Duration(0),
	})
	if err != nil {
		return ServeConfig{}, err
	}

	return ServeConfig{
		Config:            baseConfig(v),
		Listen:            v.GetString("listen"),
		MetricsListen:     v.GetString("metrics-listen"),
		MarketsInterval:   v.GetDuration("markets-interval"),
		PortfolioInterval: v.GetDuration("portfolio-interval"),
		StrategyInterval:  v.GetDuration("strategy-interval"),
		AdminInterval:     v.GetDuration("admin-interval"),
		RedisAddr:         v.GetString("redis-addr"),
		MetadataTTL:       v.GetDuration("metadata-ttl"),
		Identities:        getStringSlice(v, "identity"),
	}, nil
}
