package model

import "strings"

// TokenMeta is ERC20 metadata read from the token contract.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// AssetSymbol renders the token the way pools name it, TICKER-ADDRESS.
// It is empty when the contract reported no symbol.
func (m TokenMeta) AssetSymbol() string {
	ticker := strings.TrimSpace(m.Symbol)
	if ticker == "" {
		return ""
	}
	return strings.ToUpper(ticker + "-" + m.Address)
}
