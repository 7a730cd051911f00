package multichain

import (
	"context"

	"swapScope/internal/asset"
	"swapScope/internal/model"
)

// Network selects mainnet or testnet endpoints and address formats.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// ReserveDepositAddress is where reserve-asset deposits on THORChain go.
// Native deposits carry no recipient.
const ReserveDepositAddress = ""

// TxParams describes one outbound transfer.
type TxParams struct {
	Amount    asset.AssetAmount
	Recipient string
	Memo      string
}

// Fees are gas estimates in the chain's gas asset.
type Fees struct {
	Average asset.AssetAmount
	Fast    asset.AssetAmount
	Fastest asset.AssetAmount
}

// ChainClient signs and broadcasts for one chain. Every method that
// touches the network must return a descriptive error on failure.
type ChainClient interface {
	Chain() asset.Chain
	Address() (string, error)
	Balances(ctx context.Context, address string) ([]asset.AssetAmount, error)
	Fees(ctx context.Context) (Fees, error)
	Transfer(ctx context.Context, params TxParams) (string, error)
	SetPrivateKey(key string) error
	ExplorerAddressURL(address string) string
	ExplorerTxURL(txID string) string
}

// Provider serves pool snapshots and inbound vault addresses.
type Provider interface {
	InboundAddress(ctx context.Context, chain asset.Chain) (model.InboundAddress, error)
	Pools(ctx context.Context, status string) ([]model.PoolDetail, error)
}

// KeyDeriver turns encrypted keystore material into a signing key and
// derives the address it controls.
type KeyDeriver interface {
	PrivateKeyFromKeystore(material []byte, password string) (string, error)
	AddressFromPrivateKey(key string) (string, error)
}

// Journal records submitted transfers.
type Journal interface {
	PutTxBatch(records []model.TxRecord) error
}
