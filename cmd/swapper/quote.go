package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/config"
	"swapScope/internal/model"
	"swapScope/internal/pool"
	"swapScope/internal/storage"
	"swapScope/internal/storage/postgres"
	"swapScope/internal/swap"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap against current pool depths",
		RunE:  runQuote,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("pair", "", "swap pair IN_OUT, e.g. BTC.BTC_ETH.ETH")
	cmd.Flags().String("amount", "", "input amount in asset units")
	cmd.Flags().String("tolerance", "3", "slippage tolerance in percent")
	cmd.Flags().String("recipient", "", "destination address for the memo preview")
	cmd.Flags().String("pools-file", "", "read pools from a JSONL snapshot instead of Midgard")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pair, err := swap.ParsePair(cfg.Pair)
	if err != nil {
		return err
	}
	if cfg.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	value, err := amount.FromAssetString(cfg.Amount, pair.Input.Decimals())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	details, source, err := loadPoolDetails(ctx, cfg, logger)
	if err != nil {
		return err
	}
	pools, skipped := pool.FromDetails(details)

	logger.Info("quote",
		zap.String("pair", pair.String()),
		zap.String("amount", cfg.Amount),
		zap.String("tolerance", cfg.Tolerance.String()),
		zap.String("source", source),
		zap.Int("pools", len(pools)),
		zap.Int("skipped", skipped),
	)

	quote, err := swap.New(asset.NewAssetAmount(pair.Input, value), pair.Output, pools, cfg.Tolerance)
	if err != nil {
		return err
	}
	return printQuote(cmd.OutOrStdout(), quote, cfg.Recipient)
}

// loadPoolDetails reads pools from a JSONL snapshot, Postgres, or Midgard,
// in that order of preference.
func loadPoolDetails(ctx context.Context, cfg config.QuoteConfig, logger *zap.Logger) ([]model.PoolDetail, string, error) {
	if cfg.PoolsFile != "" {
		details, err := storage.ReadPoolSnapshot(cfg.PoolsFile)
		return details, cfg.PoolsFile, err
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, "", fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		details, err := store.LoadPoolSnapshots(ctx, pool.StatusAvailable)
		return details, "postgres", err
	}
	details, err := newMidgard(cfg.Common, logger).Pools(ctx, pool.StatusAvailable)
	return details, "midgard", err
}

func printQuote(out io.Writer, quote *swap.Swap, recipient string) error {
	fmt.Fprintf(out, "input:       %s\n", quote.InputAmount)
	if !quote.IsQuoted() {
		fmt.Fprintf(out, "invalid:     %v\n", quote.Err())
		return nil
	}
	fmt.Fprintf(out, "route:       %s\n", quote.Route)
	fmt.Fprintf(out, "output:      %s\n", quote.OutputAmount)
	fmt.Fprintf(out, "rate:        %s\n", quote.Rate())
	fmt.Fprintf(out, "inverse:     %s\n", quote.InverseRate())
	fmt.Fprintf(out, "slip:        %s\n", quote.Slip)
	fmt.Fprintf(out, "min output:  %s\n", quote.MinOutputAmount)
	fmt.Fprintf(out, "network fee: %s\n", quote.NetworkFee)
	if !quote.IsSlipValid() {
		fmt.Fprintln(out, "warning:     slip exceeds the maximum")
	}
	if !quote.IsValid() {
		fmt.Fprintf(out, "invalid:     %v\n", quote.Err())
		return nil
	}
	if recipient != "" {
		instruction, err := quote.Memo(recipient)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "memo:        %s\n", instruction)
	}
	return nil
}
