package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// TxConfig holds configuration for the swap, add, and withdraw commands.
type TxConfig struct {
	Common
	RPCURL    string
	Keystore  string
	Address   string
	Password  string
	Tokens    []string
	Journal   string
	Tolerance decimal.Decimal
	DryRun    bool
}

// LoadTx merges config file, environment variables, and flags into TxConfig.
// The keystore password is read from SWAPPER_PASSWORD or the config file
// only, never from a flag.
func LoadTx(cfgFile string, flags *pflag.FlagSet) (TxConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"journal":   "./data/tx_journal.jsonl",
		"tolerance": "3",
		"dry-run":   false,
	})
	if err != nil {
		return TxConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return TxConfig{}, err
	}
	tolerance, err := parseTolerance(v.GetString("tolerance"))
	if err != nil {
		return TxConfig{}, err
	}

	cfg := TxConfig{
		Common:    common,
		RPCURL:    v.GetString("rpc"),
		Keystore:  v.GetString("keystore"),
		Address:   v.GetString("address"),
		Password:  v.GetString("password"),
		Tokens:    getStringSlice(v, "token"),
		Journal:   v.GetString("journal"),
		Tolerance: tolerance,
		DryRun:    v.GetBool("dry-run"),
	}
	if cfg.RPCURL == "" {
		return TxConfig{}, fmt.Errorf("rpc url is required")
	}
	if cfg.Keystore == "" {
		return TxConfig{}, fmt.Errorf("keystore path is required")
	}
	return cfg, nil
}
