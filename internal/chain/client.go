// Package chain is the EVM access used by the oracle reader.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	lru "github.com/hashicorp/golang-lru/v2"
)

const blockTimeCacheSize = 4096

// Caller is the subset of the client used for read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Client struct {
	rpc   *rpc.Client
	eth   *ethclient.Client
	times *lru.Cache[uint64, uint64]
}

func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	c, err := newClient(rpcClient)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	return c, nil
}

func newClient(rpcClient *rpc.Client) (*Client, error) {
	times, err := lru.New[uint64, uint64](blockTimeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("block time cache: %w", err)
	}
	return &Client{rpc: rpcClient, eth: ethclient.NewClient(rpcClient), times: times}, nil
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// PinBlock returns number, or the current head when number is zero, so
// several reads can target the same height.
func (c *Client) PinBlock(ctx context.Context, number uint64) (uint64, error) {
	if number != 0 {
		return number, nil
	}
	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	return head, nil
}

// BlockTime returns the timestamp of block number. Times are cached since a
// mined block never changes height.
func (c *Client) BlockTime(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok := c.times.Get(number); ok {
		return ts, nil
	}
	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}
	c.times.Add(number, header.Time)
	return header.Time, nil
}

// CallContract performs an eth_call. A nil blockNumber means latest.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}
