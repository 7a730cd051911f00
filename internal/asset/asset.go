package asset

import (
	"fmt"
	"strings"
	"unicode"

	"swapScope/internal/errs"
)

// ReserveTicker is the ticker of the settlement asset every pool is
// denominated against.
const ReserveTicker = "RUNE"

// Asset is the normalised identity of a tradable unit. Symbol holds the
// full symbol including any sub-identifier, e.g. "USDT-0XDAC1" for
// ETH.USDT-0XDAC1.
type Asset struct {
	Chain  Chain
	Symbol string
	Ticker string
	SubID  string
}

// New builds an Asset from a chain and a full symbol.
func New(chain Chain, symbol string) (Asset, error) {
	c, ok := ParseChain(string(chain))
	if !ok {
		return Asset{}, fmt.Errorf("%w: unknown chain %q", errs.ErrInvalidAsset, chain)
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Asset{}, fmt.Errorf("%w: empty symbol", errs.ErrInvalidAsset)
	}
	// ":" separates memo fields and "." separates chain from symbol
	if strings.ContainsAny(symbol, ":.") || strings.IndexFunc(symbol, unicode.IsSpace) >= 0 {
		return Asset{}, fmt.Errorf("%w: malformed symbol %q", errs.ErrInvalidAsset, symbol)
	}

	ticker, subID := symbol, ""
	if idx := strings.Index(symbol, "-"); idx >= 0 {
		ticker, subID = symbol[:idx], symbol[idx+1:]
		if ticker == "" || subID == "" {
			return Asset{}, fmt.Errorf("%w: malformed symbol %q", errs.ErrInvalidAsset, symbol)
		}
	}

	return Asset{
		Chain:  c,
		Symbol: strings.ToUpper(symbol),
		Ticker: strings.ToUpper(ticker),
		SubID:  strings.ToUpper(subID),
	}, nil
}

// Parse reads CHAIN.SYMBOL or CHAIN.SYMBOL-SUBID. A malformed string
// yields ok == false and a zero Asset.
func Parse(s string) (Asset, bool) {
	chain, symbol, found := strings.Cut(strings.TrimSpace(s), ".")
	if !found {
		return Asset{}, false
	}
	a, err := New(Chain(chain), symbol)
	if err != nil {
		return Asset{}, false
	}
	return a, true
}

// MustParse is Parse for constants. It panics on a malformed string.
func MustParse(s string) Asset {
	a, ok := Parse(s)
	if !ok {
		panic(fmt.Sprintf("asset: malformed asset string %q", s))
	}
	return a
}

func RUNE() Asset { return Asset{Chain: THORChain, Symbol: "RUNE", Ticker: "RUNE"} }
func BNB() Asset  { return Asset{Chain: BNBChain, Symbol: "BNB", Ticker: "BNB"} }
func BTC() Asset  { return Asset{Chain: BTCChain, Symbol: "BTC", Ticker: "BTC"} }
func ETH() Asset  { return Asset{Chain: ETHChain, Symbol: "ETH", Ticker: "ETH"} }
func LTC() Asset  { return Asset{Chain: LTCChain, Symbol: "LTC", Ticker: "LTC"} }
func BCH() Asset  { return Asset{Chain: BCHChain, Symbol: "BCH", Ticker: "BCH"} }

// IsZero reports whether a is the zero Asset returned by failed parsing.
func (a Asset) IsZero() bool {
	return a.Chain == "" && a.Symbol == ""
}

// IsReserve recognises the reserve asset on any chain it lives on
// (THOR.RUNE, BNB.RUNE-B1A, ETH.RUNE-0x...).
func (a Asset) IsReserve() bool {
	return strings.EqualFold(a.Ticker, ReserveTicker)
}

// IsGasAsset reports whether a pays gas on its own chain.
func (a Asset) IsGasAsset() bool {
	return a.Eq(a.Chain.NativeAsset())
}

// Decimals is the asset's native precision. Tokens report the chain's
// precision here; token balances keep the contract's own decimals on
// their Amount (see NewTokenAmount).
func (a Asset) Decimals() int32 {
	return a.Chain.Decimals()
}

// Eq compares chain and full symbol, ignoring case.
func (a Asset) Eq(other Asset) bool {
	return strings.EqualFold(string(a.Chain), string(other.Chain)) &&
		strings.EqualFold(a.Symbol, other.Symbol)
}

// SortsBefore orders by ticker, then chain, then full symbol.
func (a Asset) SortsBefore(other Asset) bool {
	if a.Ticker != other.Ticker {
		return a.Ticker < other.Ticker
	}
	if a.Chain != other.Chain {
		return a.Chain < other.Chain
	}
	return a.Symbol < other.Symbol
}

// String renders the canonical CHAIN.SYMBOL[-SUBID] form.
func (a Asset) String() string {
	if a.IsZero() {
		return ""
	}
	return string(a.Chain) + "." + a.Symbol
}
