package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// PoolsConfig holds configuration for the pools command.
type PoolsConfig struct {
	Common
	Status string
	Out    string
}

// LoadPools merges config file, environment variables, and flags into PoolsConfig.
func LoadPools(cfgFile string, flags *pflag.FlagSet) (PoolsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"status": "available",
	})
	if err != nil {
		return PoolsConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return PoolsConfig{}, err
	}
	return PoolsConfig{
		Common: common,
		Status: v.GetString("status"),
		Out:    v.GetString("out"),
	}, nil
}

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Common
	Pair      string
	Amount    string
	Tolerance decimal.Decimal
	Recipient string
	PoolsFile string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"tolerance": "3",
	})
	if err != nil {
		return QuoteConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return QuoteConfig{}, err
	}
	tolerance, err := parseTolerance(v.GetString("tolerance"))
	if err != nil {
		return QuoteConfig{}, err
	}
	return QuoteConfig{
		Common:    common,
		Pair:      v.GetString("pair"),
		Amount:    v.GetString("amount"),
		Tolerance: tolerance,
		Recipient: v.GetString("recipient"),
		PoolsFile: v.GetString("pools-file"),
	}, nil
}

// parseTolerance reads a slip tolerance given in percent, 0 to 100.
func parseTolerance(input string) (decimal.Decimal, error) {
	tolerance, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tolerance %q: %w", input, err)
	}
	if tolerance.IsNegative() || tolerance.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, fmt.Errorf("tolerance %s out of range 0..100", tolerance)
	}
	return tolerance, nil
}
