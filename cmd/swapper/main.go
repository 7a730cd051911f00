package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"swapScope/internal/config"
	"swapScope/internal/midgard"
	"swapScope/internal/multichain"
)

func main() {
	// SWAPPER_* settings, the keystore password included, may live in .env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "swapper",
		Short:        "THORChain pool quotes, memos, and cross-chain transfers",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newPoolsCmd())
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newMemoCmd())
	root.AddCommand(newSwapCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newWithdrawCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addCommonFlags registers the flags every networked command shares.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("network", "mainnet", "network (mainnet, testnet)")
	cmd.Flags().String("midgard-url", "", "Midgard base URL, defaults to the network's public endpoint")
	cmd.Flags().Duration("timeout", midgard.DefaultTimeout, "Midgard request timeout")
	cmd.Flags().Int("max-retries", midgard.DefaultMaxRetries, "maximum Midgard retry attempts")
	cmd.Flags().Duration("retry-delay", midgard.DefaultRetryDelay, "initial Midgard retry delay")
	cmd.Flags().Float64("rate-limit", 5, "maximum Midgard requests per second, 0 disables")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "rotate logs into this file instead of stderr")
}

func newMidgard(cfg config.Common, logger *zap.Logger) *midgard.Client {
	baseURL := cfg.MidgardURL
	if baseURL == "" {
		baseURL = midgard.BaseURL(multichain.Network(cfg.Network))
	}
	return midgard.New(baseURL,
		midgard.WithTimeout(cfg.Timeout),
		midgard.WithMaxRetries(cfg.MaxRetries),
		midgard.WithRetryDelay(cfg.RetryDelay),
		midgard.WithRateLimit(cfg.RateLimit, 1),
		midgard.WithLogger(logger),
	)
}

func newLogger(level, file string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if file == "" {
		return cfg.Build()
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), sink, cfg.Level)
	return zap.New(core, zap.AddCaller()), nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
