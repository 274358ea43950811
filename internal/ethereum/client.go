package ethereum

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const weiPerETHExp = 18

// Client is a read-only JSON-RPC client. The tracker only observes balances;
// it never signs or sends transactions.
type Client struct {
	rpc *ethclient.Client
}

func Dial(rpcURL string) (*Client, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	return &Client{rpc: rpc}, nil
}

func (c *Client) Close() { c.rpc.Close() }

// ETHBalance returns the current balance of the address in ETH.
func (c *Client) ETHBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if !common.IsHexAddress(address) {
		return decimal.Zero, fmt.Errorf("invalid address %q", address)
	}

	wei, err := c.rpc.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance at %s: %w", address, err)
	}

	return decimal.NewFromBigInt(wei, -weiPerETHExp), nil
}

// BlockNumber returns the latest block height, mostly for connectivity checks.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", err)
	}
	return n, nil
}
