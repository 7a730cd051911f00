package model

// PoolDetail is a pool snapshot as served by the Midgard /v2/pools
// endpoint. Depths are base-unit integers at 8 decimals, prices are
// decimal strings.
type PoolDetail struct {
	Asset         string `json:"asset"`
	AssetDepth    string `json:"assetDepth"`
	RuneDepth     string `json:"runeDepth"`
	AssetPrice    string `json:"assetPrice"`
	AssetPriceUSD string `json:"assetPriceUSD"`
	Status        string `json:"status"`
	Units         string `json:"units"`
	Volume24h     string `json:"volume24h"`
	PoolAPY       string `json:"poolAPY"`
}
