// Package mock provides in-memory chain clients, providers and key
// derivers for exercising the orchestrator without a network.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"swapScope/internal/asset"
	"swapScope/internal/model"
	"swapScope/internal/multichain"
)

// TransferLog records transfers across several clients in call order.
type TransferLog struct {
	mu      sync.Mutex
	entries []multichain.TxParams
}

func (l *TransferLog) add(params multichain.TxParams) {
	l.mu.Lock()
	l.entries = append(l.entries, params)
	l.mu.Unlock()
}

// Entries returns a copy of every logged transfer.
func (l *TransferLog) Entries() []multichain.TxParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]multichain.TxParams(nil), l.entries...)
}

// Client is a multichain.ChainClient backed by memory.
type Client struct {
	mu          sync.Mutex
	chain       asset.Chain
	address     string
	balances    []asset.AssetAmount
	key         string
	transfers   []multichain.TxParams
	transferErr error
	balancesErr error
	log         *TransferLog
}

func NewClient(chain asset.Chain, address string, balances ...asset.AssetAmount) *Client {
	return &Client{chain: chain, address: address, balances: balances}
}

// WithLog makes the client append its transfers to log.
func (c *Client) WithLog(log *TransferLog) *Client {
	c.log = log
	return c
}

func (c *Client) FailTransfers(err error) {
	c.mu.Lock()
	c.transferErr = err
	c.mu.Unlock()
}

func (c *Client) FailBalances(err error) {
	c.mu.Lock()
	c.balancesErr = err
	c.mu.Unlock()
}

func (c *Client) SetBalances(balances ...asset.AssetAmount) {
	c.mu.Lock()
	c.balances = balances
	c.mu.Unlock()
}

// Transfers returns the transfers this client accepted.
func (c *Client) Transfers() []multichain.TxParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]multichain.TxParams(nil), c.transfers...)
}

// PrivateKey is the last installed key.
func (c *Client) PrivateKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

func (c *Client) Chain() asset.Chain { return c.chain }

func (c *Client) Address() (string, error) {
	if c.address == "" {
		return "", errors.New("mock client has no address")
	}
	return c.address, nil
}

func (c *Client) Balances(ctx context.Context, address string) ([]asset.AssetAmount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balancesErr != nil {
		return nil, c.balancesErr
	}
	if address != c.address {
		return nil, fmt.Errorf("unknown address %s", address)
	}
	return append([]asset.AssetAmount(nil), c.balances...), nil
}

func (c *Client) Fees(ctx context.Context) (multichain.Fees, error) {
	native := c.chain.NativeAsset()
	return multichain.Fees{
		Average: asset.FromBase(native, 1000),
		Fast:    asset.FromBase(native, 2000),
		Fastest: asset.FromBase(native, 3000),
	}, nil
}

func (c *Client) Transfer(ctx context.Context, params multichain.TxParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transferErr != nil {
		return "", c.transferErr
	}
	c.transfers = append(c.transfers, params)
	if c.log != nil {
		c.log.add(params)
	}
	return fmt.Sprintf("%s-TX-%d", c.chain, len(c.transfers)), nil
}

func (c *Client) SetPrivateKey(key string) error {
	if key == "" {
		return errors.New("empty private key")
	}
	c.mu.Lock()
	c.key = key
	c.mu.Unlock()
	return nil
}

func (c *Client) ExplorerAddressURL(address string) string {
	return "https://explorer.invalid/" + string(c.chain) + "/address/" + address
}

func (c *Client) ExplorerTxURL(txID string) string {
	return "https://explorer.invalid/" + string(c.chain) + "/tx/" + txID
}

// Provider serves fixed inbound addresses and pools.
type Provider struct {
	mu      sync.Mutex
	inbound map[asset.Chain]model.InboundAddress
	pools   []model.PoolDetail
	err     error
	lookups []asset.Chain
}

func NewProvider(pools ...model.PoolDetail) *Provider {
	return &Provider{inbound: make(map[asset.Chain]model.InboundAddress), pools: pools}
}

func (p *Provider) SetInbound(chain asset.Chain, address string, halted bool) {
	p.mu.Lock()
	p.inbound[chain] = model.InboundAddress{Chain: string(chain), Address: address, Halted: halted}
	p.mu.Unlock()
}

func (p *Provider) Fail(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Lookups lists the chains InboundAddress was asked about.
func (p *Provider) Lookups() []asset.Chain {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]asset.Chain(nil), p.lookups...)
}

func (p *Provider) InboundAddress(ctx context.Context, chain asset.Chain) (model.InboundAddress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups = append(p.lookups, chain)
	if p.err != nil {
		return model.InboundAddress{}, p.err
	}
	inbound, ok := p.inbound[chain]
	if !ok {
		return model.InboundAddress{}, fmt.Errorf("no inbound address for %s", chain)
	}
	return inbound, nil
}

func (p *Provider) Pools(ctx context.Context, status string) ([]model.PoolDetail, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	var out []model.PoolDetail
	for _, detail := range p.pools {
		if status == "" || detail.Status == status {
			out = append(out, detail)
		}
	}
	return out, nil
}

// Deriver accepts one password and maps its key to one address.
type Deriver struct {
	Password string
	Key      string
	Address  string
}

func (d Deriver) PrivateKeyFromKeystore(material []byte, password string) (string, error) {
	if len(material) == 0 {
		return "", errors.New("empty keystore")
	}
	if password != d.Password {
		return "", errors.New("could not decrypt key with given password")
	}
	return d.Key, nil
}

func (d Deriver) AddressFromPrivateKey(key string) (string, error) {
	if key != d.Key {
		return "", errors.New("unknown key")
	}
	return d.Address, nil
}
