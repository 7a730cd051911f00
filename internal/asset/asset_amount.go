package asset

import (
	"fmt"

	"swapScope/internal/amount"
	"swapScope/internal/errs"
)

// AssetAmount pairs an Asset with a quantity at the asset's precision.
type AssetAmount struct {
	Asset  Asset
	Amount amount.Amount
}

// NewAssetAmount rescales amt to the asset's declared decimals.
func NewAssetAmount(a Asset, amt amount.Amount) AssetAmount {
	return AssetAmount{Asset: a, Amount: amt.Rescale(a.Decimals())}
}

// NewTokenAmount keeps amt's own decimals. Contract tokens use it so base
// units follow the token's precision rather than the chain's.
func NewTokenAmount(a Asset, amt amount.Amount) AssetAmount {
	return AssetAmount{Asset: a, Amount: amt}
}

// FromBase builds an AssetAmount from base units at the asset's precision.
func FromBase(a Asset, base int64) AssetAmount {
	return AssetAmount{Asset: a, Amount: amount.FromBaseInt64(base, a.Decimals())}
}

// ZeroOf is an empty balance of a.
func ZeroOf(a Asset) AssetAmount {
	return AssetAmount{Asset: a, Amount: amount.Zero(a.Decimals())}
}

// MinAmountByChain is the smallest transfer the chain accepts. UTXO
// chains require the value to clear the dust limit.
func MinAmountByChain(chain Chain) AssetAmount {
	native := chain.NativeAsset()
	switch chain {
	case BTCChain, LTCChain, BCHChain:
		return FromBase(native, 10001)
	case BNBChain:
		return FromBase(native, 1)
	}
	return ZeroOf(native)
}

// DustThreshold is the least value a transfer on chain may leave the
// recipient with.
func DustThreshold(chain Chain) amount.Amount {
	return MinAmountByChain(chain).Amount
}

func (aa AssetAmount) Add(other AssetAmount) (AssetAmount, error) {
	if !aa.Asset.Eq(other.Asset) {
		return AssetAmount{}, fmt.Errorf("%w: cannot add %s to %s", errs.ErrInvalidAsset, other.Asset, aa.Asset)
	}
	return NewAssetAmount(aa.Asset, aa.Amount.Add(other.Amount)), nil
}

func (aa AssetAmount) Sub(other AssetAmount) (AssetAmount, error) {
	if !aa.Asset.Eq(other.Asset) {
		return AssetAmount{}, fmt.Errorf("%w: cannot subtract %s from %s", errs.ErrInvalidAsset, other.Asset, aa.Asset)
	}
	return NewAssetAmount(aa.Asset, aa.Amount.Sub(other.Amount)), nil
}

// String renders e.g. "0.50000000 BTC.BTC".
func (aa AssetAmount) String() string {
	return aa.Amount.String() + " " + aa.Asset.String()
}
