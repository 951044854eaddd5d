package config

import (
	"github.com/spf13/pflag"
)

// PriceConfig holds configuration for the price command.
type PriceConfig struct {
	LogLevel   string
	APIBase    string
	APIKey     string
	Network    string
	Token      string
	TargetE6   int64
	Comparator uint8
}

// LoadPrice merges config file, environment variables, and flags into PriceConfig.
func LoadPrice(cfgFile string, flags *pflag.FlagSet) (PriceConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"price-api":  "https://api.coingecko.com/api/v3/onchain",
		"comparator": 1,
	})
	if err != nil {
		return PriceConfig{}, err
	}

	return PriceConfig{
		LogLevel:   v.GetString("log-level"),
		APIBase:    v.GetString("price-api"),
		APIKey:     v.GetString("price-api-key"),
		Network:    v.GetString("price-network"),
		Token:      v.GetString("token"),
		TargetE6:   v.GetInt64("target-e6"),
		Comparator: uint8(v.GetUint("comparator")),
	}, nil
}
