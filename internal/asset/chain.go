package asset

import "strings"

// Chain identifies an originating chain.
type Chain string

const (
	BNBChain  Chain = "BNB"
	BTCChain  Chain = "BTC"
	BCHChain  Chain = "BCH"
	ETHChain  Chain = "ETH"
	LTCChain  Chain = "LTC"
	THORChain Chain = "THOR"
)

// MultichainDecimals is the precision the network normalises pool depths
// and memo limits to, regardless of the chain's native precision.
const MultichainDecimals int32 = 8

// Chains lists every supported chain in a stable order.
var Chains = []Chain{BTCChain, BNBChain, THORChain, ETHChain, LTCChain, BCHChain}

// ParseChain normalises a chain code. The second result is false for an
// unsupported chain.
func ParseChain(s string) (Chain, bool) {
	c := Chain(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

func (c Chain) Valid() bool {
	switch c {
	case BNBChain, BTCChain, BCHChain, ETHChain, LTCChain, THORChain:
		return true
	}
	return false
}

// Decimals is the native precision of the chain's gas asset.
func (c Chain) Decimals() int32 {
	if c == ETHChain {
		return 18
	}
	return 8
}

// NativeAsset is the asset used to pay gas on the chain.
func (c Chain) NativeAsset() Asset {
	switch c {
	case THORChain:
		return RUNE()
	case BNBChain:
		return BNB()
	case BTCChain:
		return BTC()
	case ETHChain:
		return ETH()
	case LTCChain:
		return LTC()
	case BCHChain:
		return BCH()
	}
	return Asset{}
}

func (c Chain) String() string {
	return string(c)
}
