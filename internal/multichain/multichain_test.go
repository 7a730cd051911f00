package multichain_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/chain/mock"
	"swapScope/internal/errs"
	"swapScope/internal/model"
	"swapScope/internal/multichain"
	"swapScope/internal/pool"
	"swapScope/internal/swap"
)

const (
	thorAddress = "thor1user"
	btcAddress  = "bc1quser"
	btcVault    = "bc1qvault"
	password    = "hunter2"
)

var btcDetail = model.PoolDetail{
	Asset:         "BTC.BTC",
	RuneDepth:     "100000000000000",
	AssetDepth:    "100000000000",
	AssetPriceUSD: "60000",
	Status:        "available",
}

type memJournal struct {
	mu      sync.Mutex
	records []model.TxRecord
}

func (j *memJournal) PutTxBatch(records []model.TxRecord) error {
	j.mu.Lock()
	j.records = append(j.records, records...)
	j.mu.Unlock()
	return nil
}

type fixture struct {
	mc       *multichain.MultiChain
	thor     *mock.Client
	btc      *mock.Client
	provider *mock.Provider
	log      *mock.TransferLog
	journal  *memJournal
	pool     *pool.Pool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &mock.TransferLog{}
	thor := mock.NewClient(asset.THORChain, thorAddress, asset.FromBase(asset.RUNE(), 500000000000)).WithLog(log)
	btc := mock.NewClient(asset.BTCChain, btcAddress, asset.FromBase(asset.BTC(), 50000000)).WithLog(log)
	provider := mock.NewProvider(btcDetail)
	provider.SetInbound(asset.BTCChain, btcVault, false)
	journal := &memJournal{}

	mc, err := multichain.New(multichain.Config{
		Network:  multichain.Testnet,
		Clients:  []multichain.ChainClient{thor, btc},
		Provider: provider,
		Deriver:  mock.Deriver{Password: password, Key: "secret-key", Address: btcAddress},
		Journal:  journal,
	})
	require.NoError(t, err)

	p, err := pool.FromDetail(btcDetail)
	require.NoError(t, err)

	return &fixture{mc: mc, thor: thor, btc: btc, provider: provider, log: log, journal: journal, pool: p}
}

func (f *fixture) unlock(t *testing.T) {
	t.Helper()
	require.NoError(t, f.mc.ValidateCredential(asset.BTCChain, []byte("{}"), password, btcAddress))
	require.NoError(t, f.mc.ValidateCredential(asset.THORChain, []byte("{}"), password, btcAddress))
	_, err := f.mc.LoadWallet(context.Background())
	require.NoError(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := multichain.New(multichain.Config{Clients: []multichain.ChainClient{mock.NewClient(asset.BTCChain, "a")}})
	assert.Error(t, err)

	_, err = multichain.New(multichain.Config{
		Provider: mock.NewProvider(),
		Clients:  []multichain.ChainClient{mock.NewClient(asset.BTCChain, "a"), mock.NewClient(asset.BTCChain, "b")},
	})
	assert.Error(t, err)
}

func TestValidateCredential(t *testing.T) {
	f := newFixture(t)

	err := f.mc.ValidateCredential(asset.BTCChain, []byte("{}"), "wrong", btcAddress)
	assert.True(t, errors.Is(err, errs.ErrCredentialInvalid))
	assert.Empty(t, f.btc.PrivateKey())

	err = f.mc.ValidateCredential(asset.BTCChain, []byte("{}"), password, "bc1qsomeoneelse")
	assert.True(t, errors.Is(err, errs.ErrCredentialInvalid))
	assert.NotContains(t, err.Error(), "secret-key")
	assert.Empty(t, f.btc.PrivateKey())

	require.NoError(t, f.mc.ValidateCredential(asset.BTCChain, []byte("{}"), password, strings.ToUpper(btcAddress)))
	assert.Equal(t, "secret-key", f.btc.PrivateKey())

	err = f.mc.ValidateCredential(asset.LTCChain, []byte("{}"), password, btcAddress)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}

func TestLoadWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mc.LoadWallet(ctx)
	assert.True(t, errors.Is(err, errs.ErrWalletNotConnected))
	assert.Nil(t, f.mc.Wallet())

	f.unlock(t)
	wallet := f.mc.Wallet()
	require.NotNil(t, wallet)
	require.Len(t, wallet.Accounts, 2)
	assert.Equal(t, asset.BTCChain, wallet.Accounts[0].Chain)
	assert.Equal(t, asset.THORChain, wallet.Accounts[1].Chain)

	addr, ok := wallet.AddressByChain(asset.THORChain)
	require.True(t, ok)
	assert.Equal(t, thorAddress, addr)

	assert.Equal(t, "0.50000000", wallet.Balance(asset.BTC()).Amount.String())
	assert.True(t, wallet.Balance(asset.ETH()).Amount.IsZero())
	assert.Len(t, wallet.Assets(), 2)

	// 0.5 BTC at 60000 + 5000 RUNE at 60 each
	total := wallet.TotalUSD([]*pool.Pool{f.pool})
	assert.Equal(t, "330000.00", total.ToFixed(2))
}

func TestLoadWalletFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)
	before := f.mc.Wallet()

	f.thor.FailBalances(errors.New("node unreachable"))
	f.btc.SetBalances(asset.FromBase(asset.BTC(), 1))

	_, err := f.mc.LoadWallet(context.Background())
	require.Error(t, err)
	assert.Same(t, before, f.mc.Wallet())
	assert.Equal(t, "0.50000000", f.mc.Wallet().Balance(asset.BTC()).Amount.String())
}

func TestSwapRequiresWallet(t *testing.T) {
	f := newFixture(t)
	quote := btcQuote(t, f.pool, 1000000)

	_, err := f.mc.Swap(context.Background(), quote, thorAddress)
	assert.True(t, errors.Is(err, errs.ErrWalletNotConnected))
	assert.Empty(t, f.log.Entries())
}

func btcQuote(t *testing.T, p *pool.Pool, sats int64) *swap.Swap {
	t.Helper()
	quote, err := swap.New(asset.FromBase(asset.BTC(), sats), asset.RUNE(), []*pool.Pool{p}, decimal.NewFromInt(1))
	require.NoError(t, err)
	return quote
}

func TestSwapSendsToInputChainVault(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)

	quote := btcQuote(t, f.pool, 1000000)
	txID, err := f.mc.Swap(context.Background(), quote, thorAddress)
	require.NoError(t, err)
	assert.Equal(t, "BTC-TX-1", txID)

	transfers := f.btc.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, btcVault, transfers[0].Recipient)
	assert.True(t, transfers[0].Amount.Asset.Eq(asset.BTC()))
	assert.True(t, strings.HasPrefix(transfers[0].Memo, "SWAP:THOR.RUNE:thor1user:"))

	expected, err := quote.Memo(thorAddress)
	require.NoError(t, err)
	assert.Equal(t, expected, transfers[0].Memo)

	require.Len(t, f.journal.records, 1)
	assert.Equal(t, model.TxKindSwap, f.journal.records[0].Kind)
	assert.Equal(t, "BTC-TX-1", f.journal.records[0].TxID)
}

func TestSwapRejectsInsufficientFee(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)

	quote := btcQuote(t, f.pool, 15000)
	require.True(t, quote.HasInsufficientFee)

	_, err := f.mc.Swap(context.Background(), quote, thorAddress)
	assert.True(t, errors.Is(err, errs.ErrInsufficientFee))
	assert.Empty(t, f.log.Entries())
}

func TestSwapRejectsHaltedVault(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)
	f.provider.SetInbound(asset.BTCChain, btcVault, true)

	_, err := f.mc.Swap(context.Background(), btcQuote(t, f.pool, 1000000), thorAddress)
	assert.True(t, errors.Is(err, errs.ErrTransferFailed))
	assert.Empty(t, f.log.Entries())
}

func TestSwapWrapsTransferFailure(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)
	cause := errors.New("mempool full")
	f.btc.FailTransfers(cause)

	_, err := f.mc.Swap(context.Background(), btcQuote(t, f.pool, 1000000), thorAddress)
	assert.True(t, errors.Is(err, errs.ErrTransferFailed))
	assert.True(t, errors.Is(err, cause))
}

func runeDeposit(units int64) asset.AssetAmount {
	return asset.NewAssetAmount(asset.RUNE(), amount.FromAsset(decimal.NewFromInt(units), 8))
}

func TestSymmetricAddOrdersLegs(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)

	result, err := f.mc.AddLiquidity(context.Background(), multichain.AddLiquidityParams{
		Pool:    f.pool,
		Reserve: runeDeposit(1000),
		Asset:   asset.FromBase(asset.BTC(), 100000000),
	})
	require.NoError(t, err)
	assert.Equal(t, "THOR-TX-1", result.ReserveTxID)
	assert.Equal(t, "BTC-TX-1", result.AssetTxID)

	entries := f.log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Asset.IsReserve())
	assert.Equal(t, multichain.ReserveDepositAddress, entries[0].Recipient)
	assert.Equal(t, "ADD:BTC.BTC", entries[0].Memo)

	assert.True(t, entries[1].Amount.Asset.Eq(asset.BTC()))
	assert.Equal(t, btcVault, entries[1].Recipient)
	assert.Equal(t, "ADD:BTC.BTC", entries[1].Memo)

	assert.NotContains(t, f.provider.Lookups(), asset.THORChain)
}

func TestSymmetricAddReserveFailureStopsAssetLeg(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)
	f.thor.FailTransfers(errors.New("thornode down"))

	_, err := f.mc.AddLiquidity(context.Background(), multichain.AddLiquidityParams{
		Pool:    f.pool,
		Reserve: runeDeposit(1000),
		Asset:   asset.FromBase(asset.BTC(), 100000000),
	})
	assert.True(t, errors.Is(err, errs.ErrTransferFailed))
	assert.False(t, errors.Is(err, errs.ErrPartialLiquidityDeposit))
	assert.Empty(t, f.btc.Transfers())
	assert.Empty(t, f.log.Entries())
}

func TestSymmetricAddPartialDeposit(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)
	f.btc.FailTransfers(errors.New("fee too low"))
	ctx := context.Background()

	result, err := f.mc.AddLiquidity(ctx, multichain.AddLiquidityParams{
		Pool:    f.pool,
		Reserve: runeDeposit(1000),
		Asset:   asset.FromBase(asset.BTC(), 100000000),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrPartialLiquidityDeposit))
	assert.True(t, errors.Is(err, errs.ErrTransferFailed))
	assert.Equal(t, "THOR-TX-1", result.ReserveTxID)
	assert.Empty(t, result.AssetTxID)

	reserveTx, partial := multichain.IsPartialDeposit(err)
	require.True(t, partial)
	assert.Equal(t, "THOR-TX-1", reserveTx)

	f.btc.FailTransfers(nil)
	txID, err := f.mc.ResumeAssetDeposit(ctx, f.pool, asset.FromBase(asset.BTC(), 100000000))
	require.NoError(t, err)
	assert.Equal(t, "BTC-TX-1", txID)
	assert.Len(t, f.thor.Transfers(), 1)
}

func TestAddLiquidityRejectsBeforeTransfer(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)
	ctx := context.Background()

	_, err := f.mc.AddLiquidity(ctx, multichain.AddLiquidityParams{
		Pool:    f.pool,
		Reserve: runeDeposit(1000),
		Asset:   asset.ZeroOf(asset.BTC()),
	})
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

	_, err = f.mc.AddLiquidity(ctx, multichain.AddLiquidityParams{
		Pool:  f.pool,
		Asset: asset.FromBase(asset.ETH(), 1),
	})
	assert.True(t, errors.Is(err, errs.ErrInvalidAsset))

	assert.Empty(t, f.log.Entries())
}

func TestSymmetricAddNeedsReserveClient(t *testing.T) {
	log := &mock.TransferLog{}
	btc := mock.NewClient(asset.BTCChain, btcAddress, asset.FromBase(asset.BTC(), 50000000)).WithLog(log)
	provider := mock.NewProvider(btcDetail)
	provider.SetInbound(asset.BTCChain, btcVault, false)

	mc, err := multichain.New(multichain.Config{
		Clients:  []multichain.ChainClient{btc},
		Provider: provider,
		Deriver:  mock.Deriver{Password: password, Key: "secret-key", Address: btcAddress},
	})
	require.NoError(t, err)
	require.NoError(t, mc.ValidateCredential(asset.BTCChain, []byte("{}"), password, btcAddress))
	_, err = mc.LoadWallet(context.Background())
	require.NoError(t, err)

	p, err := pool.FromDetail(btcDetail)
	require.NoError(t, err)

	_, err = mc.AddLiquidity(context.Background(), multichain.AddLiquidityParams{
		Pool:    p,
		Reserve: runeDeposit(1000),
		Asset:   asset.FromBase(asset.BTC(), 100000000),
	})
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
	_, partial := multichain.IsPartialDeposit(err)
	assert.False(t, partial)
	assert.Empty(t, log.Entries())
	assert.Empty(t, provider.Lookups())
}

func TestAsymmetricAdd(t *testing.T) {
	f := newFixture(t)
	f.unlock(t)

	result, err := f.mc.AddLiquidity(context.Background(), multichain.AddLiquidityParams{
		Pool:  f.pool,
		Asset: asset.FromBase(asset.BTC(), 100000000),
	})
	require.NoError(t, err)
	assert.Empty(t, result.ReserveTxID)
	assert.Equal(t, "BTC-TX-1", result.AssetTxID)
	assert.Empty(t, f.thor.Transfers())
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mc.Withdraw(ctx, f.pool, 5000)
	assert.True(t, errors.Is(err, errs.ErrWalletNotConnected))

	f.unlock(t)
	_, err = f.mc.Withdraw(ctx, f.pool, 10001)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

	txID, err := f.mc.Withdraw(ctx, f.pool, 5000)
	require.NoError(t, err)
	assert.Equal(t, "BTC-TX-1", txID)

	transfers := f.btc.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "WITHDRAW:BTC.BTC:5000", transfers[0].Memo)
	assert.Equal(t, btcVault, transfers[0].Recipient)
	assert.Equal(t, "10001", transfers[0].Amount.Amount.BaseAmount().String())
}

func TestFeesAndExplorer(t *testing.T) {
	f := newFixture(t)

	fees, err := f.mc.Fees(context.Background(), asset.BTCChain)
	require.NoError(t, err)
	assert.True(t, fees.Fast.Amount.Gt(fees.Average.Amount))

	assert.Contains(t, f.mc.ExplorerTxURL(asset.BTCChain, "abc"), "/tx/abc")
	assert.Empty(t, f.mc.ExplorerAddressURL(asset.ETHChain, "0x1"))

	pools, err := f.mc.Pools(context.Background(), "available")
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, []asset.Chain{asset.BTCChain, asset.THORChain}, f.mc.Chains())
}
