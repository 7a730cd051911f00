package swap

import (
	"fmt"
	"strings"

	"swapScope/internal/asset"
	"swapScope/internal/errs"
)

// Pair is an input/output asset selection.
type Pair struct {
	Input  asset.Asset
	Output asset.Asset
}

// ParsePair reads "IN_OUT", e.g. "BTC.BTC_ETH.ETH".
func ParsePair(s string) (Pair, error) {
	in, out, found := strings.Cut(strings.TrimSpace(s), "_")
	if !found {
		return Pair{}, fmt.Errorf("%w: swap pair %q", errs.ErrInvalidParameter, s)
	}
	input, ok := asset.Parse(in)
	if !ok {
		return Pair{}, fmt.Errorf("%w: swap input %q", errs.ErrInvalidAsset, in)
	}
	output, ok := asset.Parse(out)
	if !ok {
		return Pair{}, fmt.Errorf("%w: swap output %q", errs.ErrInvalidAsset, out)
	}
	return Pair{Input: input, Output: output}, nil
}

func (p Pair) String() string {
	return p.Input.String() + "_" + p.Output.String()
}
