package swap

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/errs"
	"swapScope/internal/memo"
	"swapScope/internal/pool"
)

// Route is the path a swap takes through the pools.
type Route int

const (
	// RouteDirect trades against one pool; one side is the reserve asset.
	RouteDirect Route = iota + 1
	// RouteDouble trades asset -> reserve -> asset through two pools.
	RouteDouble
)

func (r Route) String() string {
	switch r {
	case RouteDirect:
		return "direct"
	case RouteDouble:
		return "double"
	}
	return "none"
}

var maxTolerance = decimal.NewFromInt(100)

// DefaultMaxSlip is the display guard used by IsSlipValid.
var DefaultMaxSlip = amount.NewPercent(decimal.RequireFromString("0.05"))

// defaultNetworkFees are in units of each chain's gas asset.
var defaultNetworkFees = map[asset.Chain]string{
	asset.BNBChain:  "0.000375",
	asset.BTCChain:  "0.0001",
	asset.LTCChain:  "0.0001",
	asset.BCHChain:  "0.0001",
	asset.ETHChain:  "0.002",
	asset.THORChain: "0.02",
}

// DefaultNetworkFee is the fee charged on chain, in its gas asset.
func DefaultNetworkFee(chain asset.Chain) asset.AssetAmount {
	native := chain.NativeAsset()
	raw, ok := defaultNetworkFees[chain]
	if !ok {
		return asset.ZeroOf(native)
	}
	return asset.NewAssetAmount(native, amount.FromAsset(decimal.RequireFromString(raw), native.Decimals()))
}

type options struct {
	fees    map[asset.Chain]asset.AssetAmount
	maxSlip amount.Percent
}

// Option tunes a quote.
type Option func(*options)

// WithNetworkFee overrides the fee for chain, given in its gas asset.
func WithNetworkFee(chain asset.Chain, fee amount.Amount) Option {
	return func(o *options) {
		o.fees[chain] = asset.NewAssetAmount(chain.NativeAsset(), fee)
	}
}

// WithMaxSlip sets the slip above which IsSlipValid reports false.
func WithMaxSlip(maxSlip amount.Percent) Option {
	return func(o *options) {
		o.maxSlip = maxSlip
	}
}

// Swap is a priced trade intent. Quote fields are only populated when
// every pool on the route exists and has depth.
type Swap struct {
	InputAsset  asset.Asset
	OutputAsset asset.Asset
	InputAmount asset.AssetAmount
	Tolerance   decimal.Decimal
	Route       Route
	Pools       []*pool.Pool

	OutputAmount    asset.AssetAmount
	Price           amount.Amount
	Slip            amount.Percent
	MinOutputAmount asset.AssetAmount

	NetworkFee         asset.AssetAmount
	HasInsufficientFee bool

	maxSlip amount.Percent
	quoted  bool
	err     error
}

// New prices input against output. tolerance is the accepted slippage in
// percent and must be within [0, 100].
//
// An error is returned only for contract violations. A trade that cannot
// be executed (same asset, missing or empty pool, zero input, fee not
// covered) yields a Swap whose IsValid is false and whose Err says why.
func New(input asset.AssetAmount, output asset.Asset, pools []*pool.Pool, tolerance decimal.Decimal, opts ...Option) (*Swap, error) {
	if tolerance.IsNegative() || tolerance.GreaterThan(maxTolerance) {
		return nil, fmt.Errorf("%w: slippage tolerance %s outside [0, 100]", errs.ErrInvalidParameter, tolerance)
	}
	if input.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative input amount %s", errs.ErrInvalidParameter, input.Amount)
	}
	if input.Asset.IsZero() || output.IsZero() {
		return nil, fmt.Errorf("%w: empty swap asset", errs.ErrInvalidAsset)
	}

	o := options{fees: make(map[asset.Chain]asset.AssetAmount), maxSlip: DefaultMaxSlip}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Swap{
		InputAsset:  input.Asset,
		OutputAsset: output,
		InputAmount: input,
		Tolerance:   tolerance,
		maxSlip:     o.maxSlip,
	}

	fee, ok := o.fees[input.Asset.Chain]
	if !ok {
		fee = DefaultNetworkFee(input.Asset.Chain)
	}
	s.NetworkFee = fee

	if err := s.route(pools); err != nil {
		s.err = err
		return s, nil
	}
	if !input.Amount.IsPositive() {
		s.err = fmt.Errorf("%w: input amount must be positive", errs.ErrInvalidParameter)
		return s, nil
	}
	if err := s.quote(); err != nil {
		s.err = err
		return s, nil
	}

	s.HasInsufficientFee = insufficientFee(input, fee)
	if s.HasInsufficientFee {
		s.err = fmt.Errorf("%w: %s does not cover network fee %s", errs.ErrInsufficientFee, input, fee)
	}
	return s, nil
}

func (s *Swap) route(pools []*pool.Pool) error {
	in, out := s.InputAsset, s.OutputAsset
	if in.Eq(out) {
		return fmt.Errorf("%w: input and output are both %s", errs.ErrInvalidAsset, in)
	}
	if in.IsReserve() && out.IsReserve() {
		return fmt.Errorf("%w: no pool trades %s for %s", errs.ErrInvalidAsset, in, out)
	}

	if in.IsReserve() || out.IsReserve() {
		target := out
		if out.IsReserve() {
			target = in
		}
		p, err := lookup(target, pools)
		if err != nil {
			return err
		}
		s.Route = RouteDirect
		s.Pools = []*pool.Pool{p}
		return nil
	}

	inPool, err := lookup(in, pools)
	if err != nil {
		return err
	}
	outPool, err := lookup(out, pools)
	if err != nil {
		return err
	}
	s.Route = RouteDouble
	s.Pools = []*pool.Pool{inPool, outPool}
	return nil
}

func lookup(a asset.Asset, pools []*pool.Pool) (*pool.Pool, error) {
	p, ok := pool.ByAsset(a, pools)
	if !ok {
		return nil, fmt.Errorf("%w: no pool for %s", errs.ErrInvalidAsset, a)
	}
	if !p.Involves(a) {
		return nil, fmt.Errorf("%w: %s pool does not involve %s", errs.ErrInvalidAsset, p.Asset, a)
	}
	if !p.HasDepth() {
		return nil, fmt.Errorf("%w: %s pool has no depth", errs.ErrDivisionByZero, p.Asset)
	}
	return p, nil
}

func (s *Swap) quote() error {
	x := s.InputAmount.Amount.Rescale(asset.MultichainDecimals)

	var (
		out  amount.Amount
		slip decimal.Decimal
		err  error
	)
	switch s.Route {
	case RouteDirect:
		out, slip, err = leg(s.Pools[0], s.InputAsset, s.OutputAsset, x)
	case RouteDouble:
		var mid amount.Amount
		var slip1, slip2 decimal.Decimal
		mid, slip1, err = leg(s.Pools[0], s.InputAsset, asset.RUNE(), x)
		if err != nil {
			return err
		}
		out, slip2, err = leg(s.Pools[1], asset.RUNE(), s.OutputAsset, mid)
		one := decimal.NewFromInt(1)
		slip = one.Sub(one.Sub(slip1).Mul(one.Sub(slip2)))
	default:
		return errors.New("swap has no route")
	}
	if err != nil {
		return err
	}

	price, err := out.Div(x)
	if err != nil {
		return fmt.Errorf("swap price: %w", err)
	}

	keep := maxTolerance.Sub(s.Tolerance).Div(maxTolerance)

	s.OutputAmount = asset.NewAssetAmount(s.OutputAsset, out)
	s.Price = price.Rescale(asset.MultichainDecimals)
	s.Slip = amount.NewPercent(slip)
	s.MinOutputAmount = asset.NewAssetAmount(s.OutputAsset, out.MulDecimal(keep))
	s.quoted = true
	return nil
}

// leg applies the constant-product formula out = y*dx / (x + dx) and
// returns the slip dx / (x + dx).
func leg(p *pool.Pool, from, to asset.Asset, dx amount.Amount) (amount.Amount, decimal.Decimal, error) {
	x, err := p.DepthOf(from)
	if err != nil {
		return amount.Amount{}, decimal.Zero, err
	}
	y, err := p.DepthOf(to)
	if err != nil {
		return amount.Amount{}, decimal.Zero, err
	}

	denominator := x.Add(dx)
	out, err := y.Mul(dx).Div(denominator)
	if err != nil {
		return amount.Amount{}, decimal.Zero, fmt.Errorf("%s pool leg: %w", p.Asset, err)
	}
	slip, err := dx.Div(denominator)
	if err != nil {
		return amount.Amount{}, decimal.Zero, fmt.Errorf("%s pool slip: %w", p.Asset, err)
	}
	return out, slip.Decimal(), nil
}

// insufficientFee applies only when the input is the chain's gas asset;
// token transfers pay gas from a separate balance.
func insufficientFee(input, fee asset.AssetAmount) bool {
	if !input.Asset.IsGasAsset() {
		return false
	}
	remaining := input.Amount.Sub(fee.Amount)
	if !remaining.IsPositive() {
		return true
	}
	return remaining.Lt(asset.DustThreshold(input.Asset.Chain))
}

// IsValid reports whether the swap can be submitted.
func (s *Swap) IsValid() bool {
	return s.err == nil && s.quoted && !s.HasInsufficientFee
}

// IsQuoted reports whether output, slip, and minimum output were computed.
// An insufficient-fee swap is quoted but not valid.
func (s *Swap) IsQuoted() bool {
	return s.quoted
}

// Err explains why IsValid is false.
func (s *Swap) Err() error {
	return s.err
}

// IsSlipValid reports whether the slip is within the configured maximum.
func (s *Swap) IsSlipValid() bool {
	return s.quoted && !s.Slip.Gt(s.maxSlip)
}

// Memo encodes the on-chain instruction with MinOutputAmount as the limit.
func (s *Swap) Memo(recipient string) (string, error) {
	if !s.quoted {
		return "", fmt.Errorf("swap memo: %w", s.err)
	}
	limit := s.MinOutputAmount.Amount.ToBase(asset.MultichainDecimals)
	return memo.SwapMemo(s.OutputAsset, recipient, limit)
}

// Rate formats the execution price, e.g. "1 BTC = 15.12345678 ETH".
func (s *Swap) Rate() string {
	if !s.quoted {
		return ""
	}
	return fmt.Sprintf("1 %s = %s %s", s.InputAsset.Ticker, s.Price.ToFixed(8), s.OutputAsset.Ticker)
}

// InverseRate formats the price of one output unit in the input asset.
func (s *Swap) InverseRate() string {
	if !s.quoted {
		return ""
	}
	inverted, err := s.Price.ToFixedInverted(8)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("1 %s = %s %s", s.OutputAsset.Ticker, inverted, s.InputAsset.Ticker)
}
