package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/config"
	"swapScope/internal/model"
	"swapScope/internal/pool"
	"swapScope/internal/storage"
	"swapScope/internal/storage/postgres"
)

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List pools and optionally persist the snapshot",
		RunE:  runPools,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("status", "available", "pool status filter, empty for all")
	cmd.Flags().String("out", "", "append the snapshot to this JSONL file")
	return cmd
}

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPools(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := newMidgard(cfg.Common, logger)
	details, err := provider.Pools(ctx, cfg.Status)
	if err != nil {
		return err
	}

	logger.Info("pools fetched",
		zap.String("network", cfg.Network),
		zap.String("status", cfg.Status),
		zap.Int("pools", len(details)),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	if cfg.Out != "" {
		if err := storage.NewJsonlStorage(cfg.Out).PutPoolBatch(details); err != nil {
			return err
		}
	}
	if cfg.PGDSN != "" {
		if err := savePoolSnapshots(ctx, cfg.PGDSN, details); err != nil {
			return err
		}
	}

	pools, skipped := pool.FromDetails(details)
	if skipped > 0 {
		logger.Warn("skipped unusable pools", zap.Int("count", skipped))
	}
	return printPools(cmd.OutOrStdout(), pools)
}

func savePoolSnapshots(ctx context.Context, dsn string, details []model.PoolDetail) error {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return store.UpsertPoolSnapshots(ctx, details)
}

func printPools(out io.Writer, pools []*pool.Pool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tSTATUS\tRUNE DEPTH\tASSET DEPTH\tPRICE (RUNE)\tPRICE (USD)")
	for _, p := range pools {
		price := "-"
		if inReserve, err := p.AssetPriceInReserve(); err == nil {
			price = inReserve.ToFixed(8)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Asset,
			p.Detail.Status,
			p.ReserveDepth.ToFixed(2),
			p.AssetDepth.ToFixed(8),
			price,
			p.AssetUSDPrice.ToFixed(2),
		)
	}
	return w.Flush()
}
