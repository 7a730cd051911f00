package multichain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapScope/internal/asset"
	"swapScope/internal/errs"
	"swapScope/internal/memo"
	"swapScope/internal/model"
	"swapScope/internal/pool"
	"swapScope/internal/swap"
)

// Config wires an orchestrator.
type Config struct {
	Network  Network
	Clients  []ChainClient
	Provider Provider
	Deriver  KeyDeriver
	Journal  Journal
	Logger   *zap.Logger
}

// MultiChain sequences transfers across the configured chain clients and
// owns the wallet snapshot. Concurrent LoadWallet or ValidateCredential
// calls do not interleave their results; the last one to finish wins.
type MultiChain struct {
	network  Network
	clients  map[asset.Chain]ChainClient
	provider Provider
	deriver  KeyDeriver
	journal  Journal
	logger   *zap.Logger

	mu       sync.RWMutex
	unlocked map[asset.Chain]bool
	wallet   *Wallet
}

// AddLiquidityParams selects a symmetric deposit when Reserve is positive
// and an asset-only deposit otherwise.
type AddLiquidityParams struct {
	Pool    *pool.Pool
	Reserve asset.AssetAmount
	Asset   asset.AssetAmount
}

// DepositResult holds the transaction of each leg that was broadcast.
type DepositResult struct {
	ReserveTxID string
	AssetTxID   string
}

func New(cfg Config) (*MultiChain, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is nil")
	}
	if len(cfg.Clients) == 0 {
		return nil, fmt.Errorf("no chain clients configured")
	}
	network := cfg.Network
	if network == "" {
		network = Testnet
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	clients := make(map[asset.Chain]ChainClient, len(cfg.Clients))
	for _, client := range cfg.Clients {
		if client == nil {
			return nil, fmt.Errorf("chain client is nil")
		}
		chain := client.Chain()
		if !chain.Valid() {
			return nil, fmt.Errorf("unsupported chain %q", chain)
		}
		if _, dup := clients[chain]; dup {
			return nil, fmt.Errorf("duplicate client for chain %s", chain)
		}
		clients[chain] = client
	}

	return &MultiChain{
		network:  network,
		clients:  clients,
		provider: cfg.Provider,
		deriver:  cfg.Deriver,
		journal:  cfg.Journal,
		logger:   logger,
		unlocked: make(map[asset.Chain]bool),
	}, nil
}

func (m *MultiChain) Network() Network {
	return m.network
}

// Chains lists the configured chains in asset.Chains order.
func (m *MultiChain) Chains() []asset.Chain {
	chains := make([]asset.Chain, 0, len(m.clients))
	for _, chain := range asset.Chains {
		if _, ok := m.clients[chain]; ok {
			chains = append(chains, chain)
		}
	}
	return chains
}

func (m *MultiChain) client(chain asset.Chain) (ChainClient, error) {
	client, ok := m.clients[chain]
	if !ok {
		return nil, fmt.Errorf("%w: no client for chain %q", errs.ErrInvalidParameter, chain)
	}
	return client, nil
}

// ValidateCredential decrypts material with password and checks that the
// derived address equals expected. On a match the key is installed into
// the chain's client and the chain counts as unlocked.
func (m *MultiChain) ValidateCredential(chain asset.Chain, material []byte, password, expected string) error {
	client, err := m.client(chain)
	if err != nil {
		return err
	}
	if m.deriver == nil {
		return fmt.Errorf("%w: no key deriver configured", errs.ErrCredentialInvalid)
	}

	key, err := m.deriver.PrivateKeyFromKeystore(material, password)
	if err != nil {
		m.logger.Warn("keystore decryption failed", zap.String("chain", string(chain)))
		return fmt.Errorf("%w: decrypt keystore: %w", errs.ErrCredentialInvalid, err)
	}
	address, err := m.deriver.AddressFromPrivateKey(key)
	if err != nil {
		return fmt.Errorf("%w: derive address: %w", errs.ErrCredentialInvalid, err)
	}
	if !strings.EqualFold(address, strings.TrimSpace(expected)) {
		m.logger.Warn("keystore address mismatch",
			zap.String("chain", string(chain)),
			zap.String("expected", expected),
			zap.String("derived", address),
		)
		return fmt.Errorf("%w: keystore controls %s, not %s", errs.ErrCredentialInvalid, address, expected)
	}

	if err := client.SetPrivateKey(key); err != nil {
		return fmt.Errorf("install key on %s: %w", chain, err)
	}

	m.mu.Lock()
	m.unlocked[chain] = true
	m.mu.Unlock()

	m.logger.Info("credential validated", zap.String("chain", string(chain)), zap.String("address", address))
	return nil
}

// LoadWallet refreshes balances on every unlocked chain. The snapshot is
// only replaced when every chain answered.
func (m *MultiChain) LoadWallet(ctx context.Context) (*Wallet, error) {
	chains := m.unlockedChains()
	if len(chains) == 0 {
		return nil, errs.ErrWalletNotConnected
	}

	accounts := make([]Account, len(chains))
	g, gctx := errgroup.WithContext(ctx)
	for i, chain := range chains {
		i, chain := i, chain
		client := m.clients[chain]
		g.Go(func() error {
			address, err := client.Address()
			if err != nil {
				return fmt.Errorf("%s address: %w", chain, err)
			}
			balances, err := client.Balances(gctx, address)
			if err != nil {
				return fmt.Errorf("%s balances: %w", chain, err)
			}
			sorted := append([]asset.AssetAmount(nil), balances...)
			sort.SliceStable(sorted, func(a, b int) bool {
				return sorted[a].Asset.SortsBefore(sorted[b].Asset)
			})
			accounts[i] = Account{Chain: chain, Address: address, Balances: sorted}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("wallet refresh failed", zap.Error(err))
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	wallet := &Wallet{Accounts: accounts}
	m.mu.Lock()
	m.wallet = wallet
	m.mu.Unlock()

	m.logger.Info("wallet loaded", zap.Int("chains", len(accounts)))
	return wallet, nil
}

// Wallet returns the current snapshot, or nil before the first load.
func (m *MultiChain) Wallet() *Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wallet
}

func (m *MultiChain) unlockedChains() []asset.Chain {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chains := make([]asset.Chain, 0, len(m.unlocked))
	for _, chain := range asset.Chains {
		if m.unlocked[chain] {
			chains = append(chains, chain)
		}
	}
	return chains
}

func (m *MultiChain) requireWallet() error {
	if m.Wallet() == nil {
		return errs.ErrWalletNotConnected
	}
	return nil
}

// InboundAddress resolves the vault that accepts deposits on chain.
func (m *MultiChain) InboundAddress(ctx context.Context, chain asset.Chain) (string, error) {
	if chain == asset.THORChain {
		return ReserveDepositAddress, nil
	}
	inbound, err := m.provider.InboundAddress(ctx, chain)
	if err != nil {
		return "", fmt.Errorf("inbound address for %s: %w", chain, err)
	}
	if inbound.Halted {
		return "", fmt.Errorf("%w: %s inbound vault is halted", errs.ErrTransferFailed, chain)
	}
	if inbound.Address == "" {
		return "", fmt.Errorf("inbound address for %s is empty", chain)
	}
	return inbound.Address, nil
}

// Transfer sends params through the client of the amount's chain.
func (m *MultiChain) Transfer(ctx context.Context, params TxParams) (string, error) {
	return m.transfer(ctx, "", params)
}

func (m *MultiChain) transfer(ctx context.Context, kind model.TxKind, params TxParams) (string, error) {
	chain := params.Amount.Asset.Chain
	client, err := m.client(chain)
	if err != nil {
		return "", err
	}

	txID, err := client.Transfer(ctx, params)
	if err != nil {
		m.logger.Warn("transfer failed",
			zap.String("chain", string(chain)),
			zap.String("asset", params.Amount.Asset.String()),
			zap.String("memo", params.Memo),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %s: %w", errs.ErrTransferFailed, chain, err)
	}

	m.logger.Info("transfer submitted",
		zap.String("chain", string(chain)),
		zap.String("tx", txID),
		zap.String("amount", params.Amount.String()),
		zap.String("memo", params.Memo),
	)
	m.record(kind, txID, params)
	return txID, nil
}

func (m *MultiChain) record(kind model.TxKind, txID string, params TxParams) {
	if m.journal == nil || kind == "" {
		return
	}
	rec := model.TxRecord{
		ID:          uuid.NewString(),
		Kind:        kind,
		Chain:       string(params.Amount.Asset.Chain),
		TxID:        txID,
		Asset:       params.Amount.Asset.String(),
		Amount:      params.Amount.Amount.String(),
		Recipient:   params.Recipient,
		Memo:        params.Memo,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := m.journal.PutTxBatch([]model.TxRecord{rec}); err != nil {
		m.logger.Warn("journal tx failed", zap.String("tx", txID), zap.Error(err))
	}
}

// Swap sends the quoted input to the input chain's inbound vault with a
// SWAP memo limited to the quote's minimum output.
func (m *MultiChain) Swap(ctx context.Context, quote *swap.Swap, recipient string) (string, error) {
	if err := m.requireWallet(); err != nil {
		return "", err
	}
	if quote == nil {
		return "", fmt.Errorf("%w: swap quote is nil", errs.ErrInvalidParameter)
	}
	if quote.HasInsufficientFee {
		return "", fmt.Errorf("swap: %w", errs.ErrInsufficientFee)
	}
	if !quote.IsValid() {
		return "", fmt.Errorf("swap: %w", quote.Err())
	}

	inbound, err := m.InboundAddress(ctx, quote.InputAsset.Chain)
	if err != nil {
		return "", err
	}
	instruction, err := quote.Memo(recipient)
	if err != nil {
		return "", err
	}

	return m.transfer(ctx, model.TxKindSwap, TxParams{
		Amount:    quote.InputAmount,
		Recipient: inbound,
		Memo:      instruction,
	})
}

// AddLiquidity deposits into a pool. A symmetric deposit broadcasts the
// reserve leg first and the asset leg second. The two legs are not
// atomic: when the asset leg fails the returned error is a
// *errs.PartialDepositError and ResumeAssetDeposit completes the position.
func (m *MultiChain) AddLiquidity(ctx context.Context, params AddLiquidityParams) (DepositResult, error) {
	if err := m.requireWallet(); err != nil {
		return DepositResult{}, err
	}
	if err := validateDeposit(params.Pool, params.Asset); err != nil {
		return DepositResult{}, err
	}

	symmetric := params.Reserve.Amount.IsPositive()
	if params.Reserve.Amount.IsNegative() {
		return DepositResult{}, fmt.Errorf("%w: negative reserve amount", errs.ErrInvalidParameter)
	}
	if symmetric && !params.Reserve.Asset.IsReserve() {
		return DepositResult{}, fmt.Errorf("%w: %s is not the reserve asset", errs.ErrInvalidAsset, params.Reserve.Asset)
	}

	if _, err := m.client(params.Pool.Asset.Chain); err != nil {
		return DepositResult{}, err
	}
	if symmetric {
		if _, err := m.client(params.Reserve.Asset.Chain); err != nil {
			return DepositResult{}, fmt.Errorf("symmetric deposit: %w", err)
		}
	}

	instruction, err := memo.DepositMemo(params.Pool.Asset)
	if err != nil {
		return DepositResult{}, err
	}
	assetInbound, err := m.InboundAddress(ctx, params.Pool.Asset.Chain)
	if err != nil {
		return DepositResult{}, err
	}

	if !symmetric {
		txID, err := m.transfer(ctx, model.TxKindAdd, TxParams{Amount: params.Asset, Recipient: assetInbound, Memo: instruction})
		if err != nil {
			return DepositResult{}, err
		}
		return DepositResult{AssetTxID: txID}, nil
	}

	reserveInbound, err := m.InboundAddress(ctx, params.Reserve.Asset.Chain)
	if err != nil {
		return DepositResult{}, err
	}
	reserveTx, err := m.transfer(ctx, model.TxKindAdd, TxParams{Amount: params.Reserve, Recipient: reserveInbound, Memo: instruction})
	if err != nil {
		return DepositResult{}, err
	}

	assetTx, err := m.transfer(ctx, model.TxKindAdd, TxParams{Amount: params.Asset, Recipient: assetInbound, Memo: instruction})
	if err != nil {
		m.logger.Error("asset leg failed after reserve leg",
			zap.String("pool", params.Pool.Asset.String()),
			zap.String("reserve_tx", reserveTx),
			zap.Error(err),
		)
		return DepositResult{ReserveTxID: reserveTx}, &errs.PartialDepositError{ReserveTxID: reserveTx, Err: err}
	}
	return DepositResult{ReserveTxID: reserveTx, AssetTxID: assetTx}, nil
}

// ResumeAssetDeposit sends only the asset leg of a deposit, completing a
// position left partially funded by AddLiquidity.
func (m *MultiChain) ResumeAssetDeposit(ctx context.Context, p *pool.Pool, amt asset.AssetAmount) (string, error) {
	result, err := m.AddLiquidity(ctx, AddLiquidityParams{Pool: p, Asset: amt})
	if err != nil {
		return "", err
	}
	return result.AssetTxID, nil
}

func validateDeposit(p *pool.Pool, amt asset.AssetAmount) error {
	if p == nil {
		return fmt.Errorf("%w: pool is nil", errs.ErrInvalidParameter)
	}
	if !amt.Asset.Eq(p.Asset) {
		return fmt.Errorf("%w: %s does not belong to the %s pool", errs.ErrInvalidAsset, amt.Asset, p.Asset)
	}
	if !amt.Amount.IsPositive() {
		return fmt.Errorf("%w: asset amount must be positive", errs.ErrInvalidParameter)
	}
	return nil
}

// Withdraw asks the network to return basisPoints of the position by
// sending the chain's minimum amount with a WITHDRAW memo.
func (m *MultiChain) Withdraw(ctx context.Context, p *pool.Pool, basisPoints int) (string, error) {
	if err := m.requireWallet(); err != nil {
		return "", err
	}
	if p == nil {
		return "", fmt.Errorf("%w: pool is nil", errs.ErrInvalidParameter)
	}
	instruction, err := memo.WithdrawMemo(p.Asset, basisPoints)
	if err != nil {
		return "", err
	}
	chain := p.Asset.Chain
	inbound, err := m.InboundAddress(ctx, chain)
	if err != nil {
		return "", err
	}
	return m.transfer(ctx, model.TxKindWithdraw, TxParams{
		Amount:    asset.MinAmountByChain(chain),
		Recipient: inbound,
		Memo:      instruction,
	})
}

// Fees reports the current gas estimates for chain.
func (m *MultiChain) Fees(ctx context.Context, chain asset.Chain) (Fees, error) {
	client, err := m.client(chain)
	if err != nil {
		return Fees{}, err
	}
	fees, err := client.Fees(ctx)
	if err != nil {
		return Fees{}, fmt.Errorf("%s fees: %w", chain, err)
	}
	return fees, nil
}

// Pools fetches provider snapshots and converts the usable ones.
func (m *MultiChain) Pools(ctx context.Context, status string) ([]*pool.Pool, error) {
	details, err := m.provider.Pools(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("fetch pools: %w", err)
	}
	pools, skipped := pool.FromDetails(details)
	if skipped > 0 {
		m.logger.Debug("skipped unusable pools", zap.Int("count", skipped))
	}
	return pools, nil
}

func (m *MultiChain) ExplorerAddressURL(chain asset.Chain, address string) string {
	client, err := m.client(chain)
	if err != nil {
		return ""
	}
	return client.ExplorerAddressURL(address)
}

func (m *MultiChain) ExplorerTxURL(chain asset.Chain, txID string) string {
	client, err := m.client(chain)
	if err != nil {
		return ""
	}
	return client.ExplorerTxURL(txID)
}

// IsPartialDeposit reports whether err left a deposit half funded.
func IsPartialDeposit(err error) (string, bool) {
	var partial *errs.PartialDepositError
	if errors.As(err, &partial) {
		return partial.ReserveTxID, true
	}
	return "", false
}
