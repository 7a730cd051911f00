package multichain

import (
	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/pool"
)

// Account is the address and balances held on one chain.
type Account struct {
	Chain    asset.Chain
	Address  string
	Balances []asset.AssetAmount
}

// Wallet is an immutable snapshot of every unlocked chain, ordered by
// asset.Chains.
type Wallet struct {
	Accounts []Account
}

// Assets lists every asset with a balance entry.
func (w *Wallet) Assets() []asset.Asset {
	if w == nil {
		return nil
	}
	var assets []asset.Asset
	for _, account := range w.Accounts {
		for _, balance := range account.Balances {
			assets = append(assets, balance.Asset)
		}
	}
	return assets
}

// AddressByChain returns the wallet address on chain.
func (w *Wallet) AddressByChain(chain asset.Chain) (string, bool) {
	if w == nil {
		return "", false
	}
	for _, account := range w.Accounts {
		if account.Chain == chain {
			return account.Address, true
		}
	}
	return "", false
}

// Balance returns the held amount of a, or a zero amount when absent.
func (w *Wallet) Balance(a asset.Asset) asset.AssetAmount {
	if w != nil {
		for _, account := range w.Accounts {
			for _, balance := range account.Balances {
				if balance.Asset.Eq(a) {
					return balance
				}
			}
		}
	}
	return asset.ZeroOf(a)
}

// TotalUSD values every balance through its pool. Assets without a pool
// count as zero.
func (w *Wallet) TotalUSD(pools []*pool.Pool) amount.Amount {
	total := amount.Zero(asset.MultichainDecimals)
	if w == nil {
		return total
	}
	for _, account := range w.Accounts {
		for _, balance := range account.Balances {
			value, ok := usdValue(balance, pools)
			if ok {
				total = total.Add(value)
			}
		}
	}
	return total.Rescale(asset.MultichainDecimals)
}

func usdValue(balance asset.AssetAmount, pools []*pool.Pool) (amount.Amount, bool) {
	if balance.Asset.IsReserve() {
		for _, p := range pools {
			if !p.HasDepth() {
				continue
			}
			value, err := p.ValueInUSD(balance)
			if err == nil {
				return value, true
			}
		}
		return amount.Amount{}, false
	}
	p, ok := pool.ByAsset(balance.Asset, pools)
	if !ok {
		return amount.Amount{}, false
	}
	value, err := p.ValueInUSD(balance)
	if err != nil {
		return amount.Amount{}, false
	}
	return value, true
}
