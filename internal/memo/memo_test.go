package memo

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/asset"
	"swapScope/internal/errs"
)

func TestSwapMemo(t *testing.T) {
	got, err := SwapMemo(asset.BTC(), "bc1qxyz", big.NewInt(123456))
	require.NoError(t, err)
	assert.Equal(t, "SWAP:BTC.BTC:bc1qxyz:123456", got)

	empty, err := SwapMemo(asset.BTC(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "SWAP:BTC.BTC::", empty)
}

func TestWithdrawMemoRange(t *testing.T) {
	got, err := WithdrawMemo(asset.BTC(), 5000)
	require.NoError(t, err)
	assert.Equal(t, "WITHDRAW:BTC.BTC:5000", got)

	for _, bps := range []int{0, 10000} {
		_, err := WithdrawMemo(asset.BTC(), bps)
		assert.NoError(t, err, "bps %d", bps)
	}
	for _, bps := range []int{-1, 10001} {
		_, err := WithdrawMemo(asset.BTC(), bps)
		assert.True(t, errors.Is(err, errs.ErrInvalidParameter), "bps %d", bps)
	}
}

func TestDepositAndDonateMemo(t *testing.T) {
	add, err := DepositMemo(asset.MustParse("ETH.USDT-0XDAC1"))
	require.NoError(t, err)
	assert.Equal(t, "ADD:ETH.USDT-0XDAC1", add)

	donate, err := DonateMemo(asset.BNB())
	require.NoError(t, err)
	assert.Equal(t, "DONATE:BNB.BNB", donate)

	_, err = DepositMemo(asset.Asset{})
	assert.True(t, errors.Is(err, errs.ErrInvalidAsset))
}

func TestEncodeParseIdempotent(t *testing.T) {
	memos := []string{
		"SWAP:BTC.BTC:bc1qxyz:123456",
		"SWAP:ETH.ETH:0xabc:",
		"ADD:BNB.BNB",
		"WITHDRAW:BTC.BTC:5000",
		"WITHDRAW:ETH.USDT-0XDAC1:10000",
		"DONATE:LTC.LTC",
	}
	for _, first := range memos {
		parsed, err := Parse(first)
		require.NoError(t, err, first)

		encoded, err := Encode(parsed)
		require.NoError(t, err, first)
		assert.Equal(t, first, encoded)

		reparsed, err := Parse(encoded)
		require.NoError(t, err)
		again, err := Encode(reparsed)
		require.NoError(t, err)
		assert.Equal(t, encoded, again)
	}
}

func TestEncodeRejectsSeparatorInAsset(t *testing.T) {
	_, ok := asset.Parse("BNB.A:B")
	assert.False(t, ok)

	// built directly, bypassing asset.New
	shifted := asset.Asset{Chain: asset.BNBChain, Symbol: "A:B", Ticker: "A:B"}
	for _, m := range []Memo{
		{Op: OpWithdraw, Asset: shifted, BasisPoints: 5000},
		{Op: OpSwap, Asset: shifted, Address: "bnb1xyz"},
		{Op: OpAdd, Asset: shifted},
	} {
		_, err := Encode(m)
		assert.True(t, errors.Is(err, errs.ErrInvalidAsset), "op %s", m.Op)
	}

	_, err := Parse("WITHDRAW:BNB.A:B:5000")
	assert.Error(t, err)
}

func TestParseAliases(t *testing.T) {
	cases := map[string]string{
		"=:btc.btc:bc1qxyz:10": "SWAP:BTC.BTC:bc1qxyz:10",
		"s:BTC.BTC:bc1qxyz":    "SWAP:BTC.BTC:bc1qxyz:",
		"+:BNB.BNB":            "ADD:BNB.BNB",
		"a:bnb.bnb":            "ADD:BNB.BNB",
		"-:BTC.BTC:100":        "WITHDRAW:BTC.BTC:100",
		"wd:BTC.BTC:100":       "WITHDRAW:BTC.BTC:100",
		"%:BTC.BTC":            "DONATE:BTC.BTC",
		"swap:btc.btc:x:1":     "SWAP:BTC.BTC:x:1",
	}
	for in, want := range cases {
		m, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, m.String(), in)
	}
}

func TestParseRejects(t *testing.T) {
	bad := []string{
		"",
		"NOOP:BTC.BTC",
		"SWAP",
		"SWAP:BTC",
		"SWAP:BTC.BTC:addr:-5",
		"SWAP:BTC.BTC:addr:1:extra",
		"WITHDRAW:BTC.BTC",
		"WITHDRAW:BTC.BTC:10001",
		"ADD:BTC.BTC:extra",
	}
	for _, s := range bad {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}
