package pool

import (
	"fmt"
	"strings"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/errs"
	"swapScope/internal/model"
)

// StatusAvailable marks a pool that accepts swaps.
const StatusAvailable = "available"

// Pool is an immutable snapshot of one asset/reserve pair. Depths are at
// asset.MultichainDecimals.
type Pool struct {
	Asset         asset.Asset
	ReserveDepth  amount.Amount
	AssetDepth    amount.Amount
	AssetUSDPrice amount.Amount
	Detail        model.PoolDetail
}

// New builds a Pool from depths. Negative depths are rejected.
func New(a asset.Asset, reserveDepth, assetDepth amount.Amount, detail model.PoolDetail) (*Pool, error) {
	if a.IsZero() || a.IsReserve() {
		return nil, fmt.Errorf("%w: pool asset %q", errs.ErrInvalidAsset, a)
	}
	if reserveDepth.IsNegative() || assetDepth.IsNegative() {
		return nil, fmt.Errorf("%w: negative pool depth", errs.ErrInvalidParameter)
	}

	usd := amount.Zero(asset.MultichainDecimals)
	if detail.AssetPriceUSD != "" {
		parsed, err := amount.FromAssetString(detail.AssetPriceUSD, asset.MultichainDecimals)
		if err != nil {
			return nil, fmt.Errorf("asset usd price: %w", err)
		}
		usd = parsed
	}

	return &Pool{
		Asset:         a,
		ReserveDepth:  reserveDepth.Rescale(asset.MultichainDecimals),
		AssetDepth:    assetDepth.Rescale(asset.MultichainDecimals),
		AssetUSDPrice: usd,
		Detail:        detail,
	}, nil
}

// FromDetail builds a Pool from a provider snapshot.
func FromDetail(detail model.PoolDetail) (*Pool, error) {
	a, ok := asset.Parse(detail.Asset)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidAsset, detail.Asset)
	}
	reserveDepth, err := amount.FromBaseString(detail.RuneDepth, asset.MultichainDecimals)
	if err != nil {
		return nil, fmt.Errorf("rune depth: %w", err)
	}
	assetDepth, err := amount.FromBaseString(detail.AssetDepth, asset.MultichainDecimals)
	if err != nil {
		return nil, fmt.Errorf("asset depth: %w", err)
	}
	return New(a, reserveDepth, assetDepth, detail)
}

// FromDetails converts a provider listing, skipping snapshots that do not
// describe a usable pool. The skipped count is returned for logging.
func FromDetails(details []model.PoolDetail) ([]*Pool, int) {
	pools := make([]*Pool, 0, len(details))
	skipped := 0
	for _, detail := range details {
		p, err := FromDetail(detail)
		if err != nil {
			skipped++
			continue
		}
		pools = append(pools, p)
	}
	return pools, skipped
}

// ByAsset finds the pool for a non-reserve asset.
func ByAsset(a asset.Asset, pools []*Pool) (*Pool, bool) {
	if a.IsReserve() {
		return nil, false
	}
	for _, p := range pools {
		if p != nil && p.Asset.Eq(a) {
			return p, true
		}
	}
	return nil, false
}

// IsAvailable reports whether the pool is open for trading.
func (p *Pool) IsAvailable() bool {
	return p.Detail.Status == "" || strings.EqualFold(p.Detail.Status, StatusAvailable)
}

// HasDepth reports whether both sides hold liquidity.
func (p *Pool) HasDepth() bool {
	return p.ReserveDepth.IsPositive() && p.AssetDepth.IsPositive()
}

// Involves reports whether a is the pool asset or the reserve asset.
func (p *Pool) Involves(a asset.Asset) bool {
	return a.IsReserve() || p.Asset.Eq(a)
}

// AssetPriceInReserve is reserveDepth / assetDepth.
func (p *Pool) AssetPriceInReserve() (amount.Amount, error) {
	price, err := p.ReserveDepth.Div(p.AssetDepth)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("%s asset price: %w", p.Asset, err)
	}
	return price, nil
}

// ReservePriceInAsset is assetDepth / reserveDepth.
func (p *Pool) ReservePriceInAsset() (amount.Amount, error) {
	price, err := p.AssetDepth.Div(p.ReserveDepth)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("%s reserve price: %w", p.Asset, err)
	}
	return price, nil
}

// PriceOf is the spot price of a in units of the pool's other side.
func (p *Pool) PriceOf(a asset.Asset) (amount.Amount, error) {
	if !p.Involves(a) {
		return amount.Amount{}, fmt.Errorf("%w: %s not in %s pool", errs.ErrInvalidAsset, a, p.Asset)
	}
	if a.IsReserve() {
		return p.ReservePriceInAsset()
	}
	return p.AssetPriceInReserve()
}

// DepthOf returns the pool's depth on a's side.
func (p *Pool) DepthOf(a asset.Asset) (amount.Amount, error) {
	if !p.Involves(a) {
		return amount.Amount{}, fmt.Errorf("%w: %s not in %s pool", errs.ErrInvalidAsset, a, p.Asset)
	}
	if a.IsReserve() {
		return p.ReserveDepth, nil
	}
	return p.AssetDepth, nil
}

// USDPriceOf prices any involved asset in USD. The reserve is valued
// through this pool's depth ratio.
func (p *Pool) USDPriceOf(a asset.Asset) (amount.Amount, error) {
	if !p.Involves(a) {
		return amount.Amount{}, fmt.Errorf("%w: %s not in %s pool", errs.ErrInvalidAsset, a, p.Asset)
	}
	if !a.IsReserve() {
		return p.AssetUSDPrice, nil
	}
	inAsset, err := p.ReservePriceInAsset()
	if err != nil {
		return amount.Amount{}, err
	}
	return inAsset.Mul(p.AssetUSDPrice), nil
}

// ValueInUSD converts an involved balance to USD.
func (p *Pool) ValueInUSD(aa asset.AssetAmount) (amount.Amount, error) {
	price, err := p.USDPriceOf(aa.Asset)
	if err != nil {
		return amount.Amount{}, err
	}
	return aa.Amount.Mul(price).Rescale(asset.MultichainDecimals), nil
}
