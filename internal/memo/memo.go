package memo

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"swapScope/internal/asset"
	"swapScope/internal/errs"
)

// Op is a memo opcode.
type Op string

const (
	OpSwap     Op = "SWAP"
	OpAdd      Op = "ADD"
	OpWithdraw Op = "WITHDRAW"
	OpDonate   Op = "DONATE"
)

// MaxBasisPoints is a full withdrawal.
const MaxBasisPoints = 10000

const separator = ":"

var opAliases = map[string]Op{
	"SWAP":     OpSwap,
	"=":        OpSwap,
	"S":        OpSwap,
	"ADD":      OpAdd,
	"+":        OpAdd,
	"A":        OpAdd,
	"WITHDRAW": OpWithdraw,
	"-":        OpWithdraw,
	"WD":       OpWithdraw,
	"DONATE":   OpDonate,
	"%":        OpDonate,
	"D":        OpDonate,
}

// Memo is a decoded instruction. Limit is in base units at
// asset.MultichainDecimals and is nil when the segment is empty.
type Memo struct {
	Op          Op
	Asset       asset.Asset
	Address     string
	Limit       *big.Int
	BasisPoints int
}

// SwapMemo builds SWAP:<asset>:<address>:<limit>. A nil limit renders an
// empty segment.
func SwapMemo(target asset.Asset, address string, limit *big.Int) (string, error) {
	return Encode(Memo{Op: OpSwap, Asset: target, Address: address, Limit: limit})
}

// DepositMemo builds ADD:<asset>.
func DepositMemo(target asset.Asset) (string, error) {
	return Encode(Memo{Op: OpAdd, Asset: target})
}

// WithdrawMemo builds WITHDRAW:<asset>:<basis points>.
func WithdrawMemo(target asset.Asset, basisPoints int) (string, error) {
	return Encode(Memo{Op: OpWithdraw, Asset: target, BasisPoints: basisPoints})
}

// DonateMemo builds DONATE:<asset>.
func DonateMemo(target asset.Asset) (string, error) {
	return Encode(Memo{Op: OpDonate, Asset: target})
}

// Encode renders m in canonical form.
func Encode(m Memo) (string, error) {
	if m.Asset.IsZero() {
		return "", fmt.Errorf("%w: memo asset is empty", errs.ErrInvalidAsset)
	}
	target := m.Asset.String()
	if strings.Contains(target, separator) {
		return "", fmt.Errorf("%w: asset %q contains %q", errs.ErrInvalidAsset, target, separator)
	}

	switch m.Op {
	case OpSwap:
		if strings.Contains(m.Address, separator) {
			return "", fmt.Errorf("%w: address contains %q", errs.ErrInvalidParameter, separator)
		}
		limit := ""
		if m.Limit != nil {
			if m.Limit.Sign() < 0 {
				return "", fmt.Errorf("%w: negative swap limit", errs.ErrInvalidParameter)
			}
			limit = m.Limit.String()
		}
		return join(string(OpSwap), target, m.Address, limit), nil
	case OpAdd, OpDonate:
		return join(string(m.Op), target), nil
	case OpWithdraw:
		if m.BasisPoints < 0 || m.BasisPoints > MaxBasisPoints {
			return "", fmt.Errorf("%w: basis points %d outside [0, %d]", errs.ErrInvalidParameter, m.BasisPoints, MaxBasisPoints)
		}
		return join(string(OpWithdraw), target, strconv.Itoa(m.BasisPoints)), nil
	}
	return "", fmt.Errorf("%w: unknown memo op %q", errs.ErrInvalidParameter, m.Op)
}

// Parse decodes a memo, accepting the protocol's short opcode aliases.
func Parse(s string) (Memo, error) {
	parts := strings.Split(strings.TrimSpace(s), separator)
	op, ok := opAliases[strings.ToUpper(parts[0])]
	if !ok {
		return Memo{}, fmt.Errorf("%w: unknown memo op %q", errs.ErrInvalidParameter, parts[0])
	}
	if len(parts) < 2 {
		return Memo{}, fmt.Errorf("%w: memo %q has no asset", errs.ErrInvalidParameter, s)
	}
	target, ok := asset.Parse(parts[1])
	if !ok {
		return Memo{}, fmt.Errorf("%w: memo asset %q", errs.ErrInvalidAsset, parts[1])
	}

	m := Memo{Op: op, Asset: target}
	switch op {
	case OpSwap:
		if len(parts) > 4 {
			return Memo{}, fmt.Errorf("%w: swap memo has %d segments", errs.ErrInvalidParameter, len(parts))
		}
		if len(parts) > 2 {
			m.Address = parts[2]
		}
		if len(parts) > 3 && parts[3] != "" {
			limit, ok := new(big.Int).SetString(parts[3], 10)
			if !ok || limit.Sign() < 0 {
				return Memo{}, fmt.Errorf("%w: swap limit %q", errs.ErrInvalidParameter, parts[3])
			}
			m.Limit = limit
		}
	case OpWithdraw:
		if len(parts) != 3 {
			return Memo{}, fmt.Errorf("%w: withdraw memo needs basis points", errs.ErrInvalidParameter)
		}
		bps, err := strconv.Atoi(parts[2])
		if err != nil || bps < 0 || bps > MaxBasisPoints {
			return Memo{}, fmt.Errorf("%w: basis points %q", errs.ErrInvalidParameter, parts[2])
		}
		m.BasisPoints = bps
	default:
		if len(parts) > 2 {
			return Memo{}, fmt.Errorf("%w: %s memo has %d segments", errs.ErrInvalidParameter, op, len(parts))
		}
	}
	return m, nil
}

// String is the canonical encoding, or "" for an invalid memo.
func (m Memo) String() string {
	s, err := Encode(m)
	if err != nil {
		return ""
	}
	return s
}

func join(segments ...string) string {
	return strings.Join(segments, separator)
}
