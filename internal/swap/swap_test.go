package swap

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/errs"
	"swapScope/internal/model"
	"swapScope/internal/pool"
)

func mustPool(t *testing.T, a, runeDepth, assetDepth string) *pool.Pool {
	t.Helper()
	p, err := pool.FromDetail(model.PoolDetail{Asset: a, RuneDepth: runeDepth, AssetDepth: assetDepth, Status: "available"})
	require.NoError(t, err)
	return p
}

func testPools(t *testing.T) []*pool.Pool {
	return []*pool.Pool{
		mustPool(t, "BTC.BTC", "100000000000000", "100000000000"),
		mustPool(t, "ETH.ETH", "50000000000000", "2000000000000"),
	}
}

func runeAmount(units int64) asset.AssetAmount {
	return asset.NewAssetAmount(asset.RUNE(), amount.FromAsset(decimal.NewFromInt(units), 8))
}

func TestDirectSwapOutput(t *testing.T) {
	s, err := New(runeAmount(100), asset.BTC(), testPools(t), decimal.NewFromInt(3))
	require.NoError(t, err)
	require.True(t, s.IsValid(), "err: %v", s.Err())

	assert.Equal(t, RouteDirect, s.Route)
	assert.Len(t, s.Pools, 1)

	expected := decimal.NewFromInt(1000 * 100).Div(decimal.NewFromInt(1000100))
	diff := s.OutputAmount.Amount.Decimal().Sub(expected).Abs()
	assert.True(t, diff.LessThan(decimal.New(1, -20)), "output %s", s.OutputAmount.Amount.Decimal())
	assert.Equal(t, "0.09999000", s.OutputAmount.Amount.String())

	assert.True(t, s.Slip.Fraction().IsPositive())
	assert.Equal(t, "0.01%", s.Slip.String())
	assert.True(t, s.IsSlipValid())
	assert.Equal(t, "1 RUNE = 0.00099990 BTC", s.Rate())
}

func TestSlipGrowsWithInput(t *testing.T) {
	pools := testPools(t)
	previous := decimal.Zero
	for _, units := range []int64{1, 10, 100, 1000, 10000, 100000} {
		s, err := New(runeAmount(units), asset.BTC(), pools, decimal.NewFromInt(1))
		require.NoError(t, err)
		require.True(t, s.IsValid())

		slip := s.Slip.Fraction()
		assert.True(t, slip.GreaterThan(previous), "units %d slip %s previous %s", units, slip, previous)
		previous = slip
	}
}

func TestDoubleSwapCompoundsSlip(t *testing.T) {
	pools := testPools(t)
	in := asset.NewAssetAmount(asset.BTC(), amount.FromAsset(decimal.NewFromInt(1), 8))

	s, err := New(in, asset.ETH(), pools, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.True(t, s.IsValid(), "err: %v", s.Err())
	assert.Equal(t, RouteDouble, s.Route)
	assert.Len(t, s.Pools, 2)

	// BTC -> RUNE: 1_000_000 * 1 / 1001
	mid := decimal.NewFromInt(1000000).Div(decimal.NewFromInt(1001))
	slip1 := decimal.NewFromInt(1).Div(decimal.NewFromInt(1001))
	// RUNE -> ETH against 500_000 RUNE / 20_000 ETH
	runeDepth := decimal.NewFromInt(500000)
	out := decimal.NewFromInt(20000).Mul(mid).Div(runeDepth.Add(mid))
	slip2 := mid.Div(runeDepth.Add(mid))

	assert.True(t, s.OutputAmount.Amount.Decimal().Sub(out).Abs().LessThan(decimal.New(1, -10)))

	one := decimal.NewFromInt(1)
	compound := one.Sub(one.Sub(slip1).Mul(one.Sub(slip2)))
	assert.True(t, s.Slip.Fraction().Sub(compound).Abs().LessThan(decimal.New(1, -10)))
	assert.True(t, s.Slip.Fraction().LessThan(slip1.Add(slip2)))
	assert.Equal(t, int32(18), s.OutputAmount.Amount.Decimals())
}

func TestReserveOutput(t *testing.T) {
	in := asset.NewAssetAmount(asset.BTC(), amount.FromAsset(decimal.NewFromInt(1), 8))
	s, err := New(in, asset.RUNE(), testPools(t), decimal.Zero)
	require.NoError(t, err)
	require.True(t, s.IsValid())
	assert.Equal(t, RouteDirect, s.Route)
	assert.Equal(t, "999.00099900", s.OutputAmount.Amount.String())
	assert.True(t, s.MinOutputAmount.Amount.Eq(s.OutputAmount.Amount))
}

func TestMinOutputMonotonicInTolerance(t *testing.T) {
	pools := testPools(t)
	var previous *Swap
	for _, tol := range []int64{0, 1, 5, 50, 100} {
		s, err := New(runeAmount(500), asset.BTC(), pools, decimal.NewFromInt(tol))
		require.NoError(t, err)
		require.True(t, s.IsValid())

		assert.True(t, s.MinOutputAmount.Amount.Lte(s.OutputAmount.Amount))
		if previous != nil {
			assert.True(t, s.MinOutputAmount.Amount.Lte(previous.MinOutputAmount.Amount), "tolerance %d", tol)
		}
		previous = s
	}
	assert.True(t, previous.MinOutputAmount.Amount.IsZero())
}

func TestMemoCarriesMinOutput(t *testing.T) {
	s, err := New(runeAmount(100), asset.BTC(), testPools(t), decimal.NewFromInt(3))
	require.NoError(t, err)

	m, err := s.Memo("bc1qxyz")
	require.NoError(t, err)
	// 0.0999900009999 * 0.97 = 0.096990300969...
	assert.Equal(t, "SWAP:BTC.BTC:bc1qxyz:9699030", m)
}

func TestInvalidSwaps(t *testing.T) {
	pools := testPools(t)

	same, err := New(asset.FromBase(asset.BTC(), 100000), asset.BTC(), pools, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, same.IsValid())
	assert.True(t, errors.Is(same.Err(), errs.ErrInvalidAsset))

	missing, err := New(runeAmount(1), asset.LTC(), pools, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, missing.IsValid())
	assert.True(t, errors.Is(missing.Err(), errs.ErrInvalidAsset))
	assert.Empty(t, missing.Rate())

	zero, err := New(runeAmount(0), asset.BTC(), pools, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, zero.IsValid())
	assert.True(t, errors.Is(zero.Err(), errs.ErrInvalidParameter))

	empty := append(pools, mustPool(t, "BNB.BNB", "100000000", "0"))
	noDepth, err := New(runeAmount(1), asset.BNB(), empty, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, noDepth.IsValid())
	assert.True(t, errors.Is(noDepth.Err(), errs.ErrDivisionByZero))
	_, err = noDepth.Memo("bnb1xyz")
	assert.Error(t, err)
}

func TestContractViolations(t *testing.T) {
	pools := testPools(t)

	_, err := New(runeAmount(1), asset.BTC(), pools, decimal.NewFromInt(101))
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

	_, err = New(runeAmount(1), asset.BTC(), pools, decimal.NewFromInt(-1))
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

	_, err = New(runeAmount(-1), asset.BTC(), pools, decimal.Zero)
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))
}

func TestInsufficientFee(t *testing.T) {
	pools := testPools(t)

	// 15000 sat - 10000 sat fee leaves less than the 10001 sat dust limit
	s, err := New(asset.FromBase(asset.BTC(), 15000), asset.RUNE(), pools, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, s.HasInsufficientFee)
	assert.True(t, s.IsQuoted())
	assert.False(t, s.IsValid())
	assert.True(t, errors.Is(s.Err(), errs.ErrInsufficientFee))

	ok, err := New(asset.FromBase(asset.BTC(), 20001), asset.RUNE(), pools, decimal.Zero)
	require.NoError(t, err)
	assert.False(t, ok.HasInsufficientFee)
	assert.True(t, ok.IsValid())

	custom, err := New(asset.FromBase(asset.BTC(), 20001), asset.RUNE(), pools, decimal.Zero,
		WithNetworkFee(asset.BTCChain, amount.FromBaseInt64(20000, 8)))
	require.NoError(t, err)
	assert.True(t, custom.HasInsufficientFee)
}

func TestMaxSlipOption(t *testing.T) {
	pools := testPools(t)
	s, err := New(runeAmount(100000), asset.BTC(), pools, decimal.Zero)
	require.NoError(t, err)
	// 100_000 / 1_100_000 is about 9.09%
	assert.False(t, s.IsSlipValid())

	relaxed, err := New(runeAmount(100000), asset.BTC(), pools, decimal.Zero,
		WithMaxSlip(amount.PercentFromValue(decimal.NewFromInt(10))))
	require.NoError(t, err)
	assert.True(t, relaxed.IsSlipValid())
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair("btc.btc_ETH.USDT-0XDAC1")
	require.NoError(t, err)
	assert.True(t, p.Input.Eq(asset.BTC()))
	assert.Equal(t, "ETH.USDT-0XDAC1", p.Output.String())
	assert.Equal(t, "BTC.BTC_ETH.USDT-0XDAC1", p.String())

	_, err = ParsePair("BTC.BTC")
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter))

	_, err = ParsePair("BTC_ETH.ETH")
	assert.True(t, errors.Is(err, errs.ErrInvalidAsset))
}
