package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"swapScope/internal/amount"
	"swapScope/internal/asset"
	"swapScope/internal/model"
	"swapScope/internal/multichain"
)

// FeeGasLimit is the gas assumed when quoting fees for a memo transfer.
const FeeGasLimit uint64 = 35000

var errNoKey = errors.New("no private key installed")

// EVMConfig configures an EVMClient.
type EVMConfig struct {
	Network     multichain.Network
	Tokens      []common.Address
	ExplorerURL string
	Logger      *zap.Logger
}

// EVMClient is the multichain.ChainClient for Ethereum. It reports native
// ETH and the configured ERC20 balances, and transfers native ETH with
// the memo carried as calldata.
type EVMClient struct {
	backend  Backend
	tokens   []common.Address
	explorer string
	logger   *zap.Logger
	cache    *TokenMetaCache

	mu  sync.RWMutex
	key *ecdsa.PrivateKey
}

func NewEVMClient(backend Backend, cfg EVMConfig) (*EVMClient, error) {
	if backend == nil {
		return nil, fmt.Errorf("chain backend is nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	explorer := strings.TrimRight(cfg.ExplorerURL, "/")
	if explorer == "" {
		explorer = DefaultExplorerURL(cfg.Network)
	}
	return &EVMClient{
		backend:  backend,
		tokens:   append([]common.Address(nil), cfg.Tokens...),
		explorer: explorer,
		logger:   logger,
		cache:    NewTokenMetaCache(),
	}, nil
}

// DefaultExplorerURL is the etherscan instance for network.
func DefaultExplorerURL(network multichain.Network) string {
	if network == multichain.Mainnet {
		return "https://etherscan.io"
	}
	return "https://sepolia.etherscan.io"
}

func (c *EVMClient) Chain() asset.Chain {
	return asset.ETHChain
}

func (c *EVMClient) privateKey() (*ecdsa.PrivateKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.key == nil {
		return nil, errNoKey
	}
	return c.key, nil
}

func (c *EVMClient) Address() (string, error) {
	key, err := c.privateKey()
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// SetPrivateKey installs a hex-encoded secp256k1 key.
func (c *EVMClient) SetPrivateKey(key string) error {
	parsed, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(key), "0x"))
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	c.mu.Lock()
	c.key = parsed
	c.mu.Unlock()
	return nil
}

func (c *EVMClient) Balances(ctx context.Context, address string) ([]asset.AssetAmount, error) {
	owner, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	wei, err := c.backend.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("eth balance: %w", err)
	}
	balances := []asset.AssetAmount{
		asset.NewAssetAmount(asset.ETH(), amount.FromBase(wei, asset.ETHChain.Decimals())),
	}

	for _, token := range c.tokens {
		meta, err := c.tokenMeta(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("token %s metadata: %w", token.Hex(), err)
		}
		bal, err := BalanceOf(ctx, c.backend, token, owner)
		if err != nil {
			return nil, fmt.Errorf("token %s balance: %w", token.Hex(), err)
		}
		if bal.Sign() == 0 {
			continue
		}
		tokenAsset, err := asset.New(asset.ETHChain, meta.AssetSymbol())
		if err != nil {
			c.logger.Debug("skipping token without usable symbol", zap.String("token", token.Hex()), zap.Error(err))
			continue
		}
		balances = append(balances, asset.NewTokenAmount(tokenAsset, amount.FromBase(bal, int32(meta.Decimals))))
	}
	return balances, nil
}

func (c *EVMClient) tokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if cached, ok := c.cache.Get(token); ok {
		return cached, nil
	}
	fetched, err := FetchTokenMeta(ctx, c.backend, token, c.logger)
	if err != nil {
		return fetched, err
	}
	c.cache.Set(token, fetched)
	return fetched, nil
}

// Fees quotes FeeGasLimit at the suggested gas price and two faster tiers.
func (c *EVMClient) Fees(ctx context.Context) (multichain.Fees, error) {
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return multichain.Fees{}, fmt.Errorf("suggest gas price: %w", err)
	}
	base := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(FeeGasLimit))
	tier := func(num, den int64) asset.AssetAmount {
		wei := new(big.Int).Mul(base, big.NewInt(num))
		wei.Quo(wei, big.NewInt(den))
		return asset.NewAssetAmount(asset.ETH(), amount.FromBase(wei, asset.ETHChain.Decimals()))
	}
	return multichain.Fees{
		Average: tier(1, 1),
		Fast:    tier(3, 2),
		Fastest: tier(2, 1),
	}, nil
}

// Transfer signs and broadcasts a legacy transaction sending native ETH
// to the recipient with the memo as calldata.
func (c *EVMClient) Transfer(ctx context.Context, params multichain.TxParams) (string, error) {
	key, err := c.privateKey()
	if err != nil {
		return "", err
	}
	if !params.Amount.Asset.Eq(asset.ETH()) {
		return "", fmt.Errorf("unsupported transfer asset %s", params.Amount.Asset)
	}
	to, err := ParseAddress(params.Recipient)
	if err != nil {
		return "", fmt.Errorf("recipient: %w", err)
	}
	value := params.Amount.Amount.ToBase(asset.ETHChain.Decimals())
	if value.Sign() < 0 {
		return "", fmt.Errorf("negative transfer value")
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	data := []byte(params.Memo)

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("chain id: %w", err)
	}
	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}

	c.logger.Debug("eth transfer sent",
		zap.String("tx", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)
	return signed.Hash().Hex(), nil
}

func (c *EVMClient) ExplorerAddressURL(address string) string {
	return c.explorer + "/address/" + address
}

func (c *EVMClient) ExplorerTxURL(txID string) string {
	return c.explorer + "/tx/" + txID
}
