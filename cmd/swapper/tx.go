package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/chain"
	"swapScope/internal/config"
	"swapScope/internal/errs"
	"swapScope/internal/model"
	"swapScope/internal/multichain"
	"swapScope/internal/pool"
	"swapScope/internal/storage"
	"swapScope/internal/storage/postgres"
	"swapScope/internal/swap"
)

func addTxFlags(cmd *cobra.Command) {
	addCommonFlags(cmd)
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("keystore", "", "encrypted keystore file")
	cmd.Flags().String("address", "", "address the keystore must control, defaults to the keystore's own")
	cmd.Flags().StringSlice("token", nil, "ERC20 token addresses to report balances for (comma-separated)")
	cmd.Flags().String("journal", "./data/tx_journal.jsonl", "JSONL transfer journal")
	cmd.Flags().Bool("dry-run", false, "print what would be sent without broadcasting")
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap through the pools to a recipient",
		RunE:  runSwap,
	}
	addTxFlags(cmd)
	cmd.Flags().String("pair", "", "swap pair IN_OUT, e.g. ETH.ETH_BTC.BTC")
	cmd.Flags().String("amount", "", "input amount in asset units")
	cmd.Flags().String("recipient", "", "destination address on the output chain")
	cmd.Flags().String("tolerance", "3", "slippage tolerance in percent")
	return cmd
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add liquidity to a pool",
		RunE:  runAdd,
	}
	addTxFlags(cmd)
	cmd.Flags().String("pool", "", "pool asset, e.g. ETH.ETH")
	cmd.Flags().String("asset-amount", "", "asset leg in asset units")
	cmd.Flags().String("rune-amount", "", "reserve leg in RUNE, empty for an asset-only deposit (needs a THOR chain client)")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw a share of a liquidity position",
		RunE:  runWithdraw,
	}
	addTxFlags(cmd)
	cmd.Flags().String("pool", "", "pool asset, e.g. ETH.ETH")
	cmd.Flags().Int("bps", 10000, "share to withdraw in basis points (1-10000)")
	return cmd
}

// session is an unlocked orchestrator with a fresh wallet and pool list.
type session struct {
	cfg    config.TxConfig
	logger *zap.Logger
	mc     *multichain.MultiChain
	pools  []*pool.Pool
	closer []func()
}

func (s *session) Close() {
	for i := len(s.closer) - 1; i >= 0; i-- {
		s.closer[i]()
	}
	_ = s.logger.Sync()
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTx(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger}

	if err := s.open(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) open(ctx context.Context) error {
	cfg := s.cfg
	network := multichain.Network(cfg.Network)

	tokens, err := chain.ParseAddresses(cfg.Tokens)
	if err != nil {
		return err
	}

	backend, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	s.closer = append(s.closer, backend.Close)

	evm, err := chain.NewEVMClient(backend, chain.EVMConfig{
		Network: network,
		Tokens:  tokens,
		Logger:  s.logger,
	})
	if err != nil {
		return err
	}

	journal := teeJournal{storage.NewJsonlStorage(cfg.Journal)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		s.closer = append(s.closer, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		journal = append(journal, store.Journal(ctx))
	}

	mc, err := multichain.New(multichain.Config{
		Network:  network,
		Clients:  []multichain.ChainClient{evm},
		Provider: newMidgard(cfg.Common, s.logger),
		Deriver:  chain.KeystoreDeriver{},
		Journal:  journal,
		Logger:   s.logger,
	})
	if err != nil {
		return err
	}
	s.mc = mc

	material, err := os.ReadFile(cfg.Keystore)
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	expected := cfg.Address
	if expected == "" {
		if expected, err = keystoreAddress(material); err != nil {
			return err
		}
	}
	if err := mc.ValidateCredential(asset.ETHChain, material, cfg.Password, expected); err != nil {
		return err
	}

	wallet, err := mc.LoadWallet(ctx)
	if err != nil {
		return err
	}
	pools, err := mc.Pools(ctx, pool.StatusAvailable)
	if err != nil {
		return err
	}
	s.pools = pools

	s.logger.Info("session ready",
		zap.String("network", cfg.Network),
		zap.String("rpc", cfg.RPCURL),
		zap.Int("tokens", len(tokens)),
		zap.Int("pools", len(pools)),
		zap.String("wallet_usd", wallet.TotalUSD(pools).ToFixed(2)),
		zap.String("journal", cfg.Journal),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("dry_run", cfg.DryRun),
	)
	return nil
}

func (s *session) pool(text string) (*pool.Pool, error) {
	a, ok := asset.Parse(text)
	if !ok {
		return nil, fmt.Errorf("%w: pool %q", errs.ErrInvalidAsset, text)
	}
	p, ok := pool.ByAsset(a, s.pools)
	if !ok {
		return nil, fmt.Errorf("%w: no available pool for %s", errs.ErrInvalidAsset, a)
	}
	return p, nil
}

// keystoreAddress reads the unencrypted address field of a keystore file.
func keystoreAddress(material []byte) (string, error) {
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(material, &header); err != nil {
		return "", fmt.Errorf("%w: keystore json: %w", errs.ErrCredentialInvalid, err)
	}
	if header.Address == "" {
		return "", fmt.Errorf("%w: keystore has no address, pass --address", errs.ErrCredentialInvalid)
	}
	address := header.Address
	if !strings.HasPrefix(address, "0x") {
		address = "0x" + address
	}
	return address, nil
}

func runSwap(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pairText, _ := cmd.Flags().GetString("pair")
	amountText, _ := cmd.Flags().GetString("amount")
	recipient, _ := cmd.Flags().GetString("recipient")
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}
	pair, err := swap.ParsePair(pairText)
	if err != nil {
		return err
	}
	value, err := amount.FromAssetString(amountText, pair.Input.Decimals())
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var opts []swap.Option
	if fees, err := s.mc.Fees(ctx, pair.Input.Chain); err == nil {
		opts = append(opts, swap.WithNetworkFee(pair.Input.Chain, fees.Fast.Amount))
	} else {
		s.logger.Warn("fee estimate failed, using default", zap.Error(err))
	}

	quote, err := swap.New(asset.NewAssetAmount(pair.Input, value), pair.Output, s.pools, s.cfg.Tolerance, opts...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := printQuote(out, quote, recipient); err != nil {
		return err
	}
	if s.cfg.DryRun || !quote.IsValid() {
		return quote.Err()
	}

	txID, err := s.mc.Swap(ctx, quote, recipient)
	if err != nil {
		return err
	}
	printTx(out, s.mc, pair.Input.Chain, txID)
	return nil
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolText, _ := cmd.Flags().GetString("pool")
	assetText, _ := cmd.Flags().GetString("asset-amount")
	runeText, _ := cmd.Flags().GetString("rune-amount")

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if runeText != "" {
		if err := requireChain(s.mc, asset.THORChain); err != nil {
			return fmt.Errorf("--rune-amount: %w", err)
		}
	}

	p, err := s.pool(poolText)
	if err != nil {
		return err
	}
	assetValue, err := amount.FromAssetString(assetText, p.Asset.Decimals())
	if err != nil {
		return err
	}
	params := multichain.AddLiquidityParams{
		Pool:    p,
		Reserve: asset.ZeroOf(asset.RUNE()),
		Asset:   asset.NewAssetAmount(p.Asset, assetValue),
	}
	if runeText != "" {
		runeValue, err := amount.FromAssetString(runeText, asset.MultichainDecimals)
		if err != nil {
			return err
		}
		params.Reserve = asset.NewAssetAmount(asset.RUNE(), runeValue)
	}

	out := cmd.OutOrStdout()
	if s.cfg.DryRun {
		fmt.Fprintf(out, "would add %s and %s to %s\n", params.Reserve, params.Asset, p.Asset)
		return nil
	}

	result, err := s.mc.AddLiquidity(ctx, params)
	if reserveTx, partial := multichain.IsPartialDeposit(err); partial {
		printTx(out, s.mc, asset.THORChain, reserveTx)
		fmt.Fprintln(out, "asset leg failed, rerun add without --rune-amount to complete the deposit")
		return err
	}
	if err != nil {
		return err
	}
	if result.ReserveTxID != "" {
		printTx(out, s.mc, asset.THORChain, result.ReserveTxID)
	}
	printTx(out, s.mc, p.Asset.Chain, result.AssetTxID)
	return nil
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolText, _ := cmd.Flags().GetString("pool")
	bps, _ := cmd.Flags().GetInt("bps")

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.pool(poolText)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.cfg.DryRun {
		fmt.Fprintf(out, "would withdraw %d bps from %s\n", bps, p.Asset)
		return nil
	}

	txID, err := s.mc.Withdraw(ctx, p, bps)
	if err != nil {
		return err
	}
	printTx(out, s.mc, p.Asset.Chain, txID)
	return nil
}

// requireChain fails when mc has no client for c.
func requireChain(mc *multichain.MultiChain, c asset.Chain) error {
	chains := mc.Chains()
	if slices.Contains(chains, c) {
		return nil
	}
	return fmt.Errorf("%w: no %s chain client configured (have %v)", errs.ErrInvalidParameter, c, chains)
}

func printTx(out io.Writer, mc *multichain.MultiChain, c asset.Chain, txID string) {
	if url := mc.ExplorerTxURL(c, txID); url != "" {
		fmt.Fprintf(out, "%s tx: %s (%s)\n", c, txID, url)
		return
	}
	fmt.Fprintf(out, "%s tx: %s\n", c, txID)
}

// teeJournal writes every batch to each sink and reports all failures.
type teeJournal []multichain.Journal

func (j teeJournal) PutTxBatch(records []model.TxRecord) error {
	var failures []error
	for _, sink := range j {
		if err := sink.PutTxBatch(records); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}
