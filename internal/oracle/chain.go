package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"stableScope/internal/chain"
)

const priceCacheSize = 1024

// ChainSourceConfig configures a ChainSource.
type ChainSourceConfig struct {
	Token        common.Address
	TokenID      *big.Int
	MaxRetries   int
	RetryBackoff time.Duration
}

// ChainSource reads pricePerShare(id) from the receipt token contract.
// Prices at explicit block heights are immutable and cached.
type ChainSource struct {
	cfg    ChainSourceConfig
	caller chain.Caller
	cache  *lru.Cache[uint64, *uint256.Int]
	retry  retryPolicy
}

// NewChainSource builds a source over any eth_call capable client.
func NewChainSource(cfg ChainSourceConfig, caller chain.Caller, logger *zap.Logger) (*ChainSource, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	if cfg.Token == (common.Address{}) {
		return nil, fmt.Errorf("receipt token address is required")
	}
	if cfg.TokenID == nil {
		cfg.TokenID = new(big.Int)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[uint64, *uint256.Int](priceCacheSize)
	if err != nil {
		return nil, fmt.Errorf("price cache: %w", err)
	}
	return &ChainSource{
		cfg:    cfg,
		caller: caller,
		cache:  cache,
		retry:  newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff, logger),
	}, nil
}

// PricePerShare returns the price at blockNumber; zero means latest.
func (s *ChainSource) PricePerShare(ctx context.Context, blockNumber uint64) (*uint256.Int, error) {
	if blockNumber != 0 {
		if price, ok := s.cache.Get(blockNumber); ok {
			return price.Clone(), nil
		}
	}

	var price *uint256.Int
	err := s.retry.do(ctx, blockNumber, func(ctx context.Context) error {
		var err error
		price, err = s.call(ctx, blockNumber)
		return err
	})
	if err != nil {
		return nil, err
	}
	if price.IsZero() {
		return nil, ErrZeroPrice
	}

	if blockNumber != 0 {
		s.cache.Add(blockNumber, price.Clone())
	}
	return price, nil
}

// Refresh loads the price at blockNumber into feed.
func (s *ChainSource) Refresh(ctx context.Context, feed *Feed, blockNumber uint64) (*uint256.Int, error) {
	price, err := s.PricePerShare(ctx, blockNumber)
	if err != nil {
		return nil, err
	}
	if err := feed.Set(price); err != nil {
		return nil, err
	}
	return price, nil
}

func (s *ChainSource) call(ctx context.Context, blockNumber uint64) (*uint256.Int, error) {
	tokenABI, err := ReceiptTokenABI()
	if err != nil {
		return nil, err
	}

	data, err := tokenABI.Pack("pricePerShare", s.cfg.TokenID)
	if err != nil {
		return nil, fmt.Errorf("pack pricePerShare: %w", err)
	}

	var block *big.Int
	if blockNumber != 0 {
		block = new(big.Int).SetUint64(blockNumber)
	}
	msg := ethereum.CallMsg{To: &s.cfg.Token, Data: data}
	resp, err := s.caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call pricePerShare: %w", err)
	}

	values, err := tokenABI.Unpack("pricePerShare", resp)
	if err != nil {
		return nil, permanent(fmt.Errorf("unpack pricePerShare: %w", err))
	}
	if len(values) != 1 {
		return nil, permanent(fmt.Errorf("pricePerShare return size %d", len(values)))
	}
	raw, ok := values[0].(*big.Int)
	if !ok {
		return nil, permanent(fmt.Errorf("pricePerShare unexpected type %T", values[0]))
	}
	price, overflow := uint256.FromBig(raw)
	if overflow {
		return nil, permanent(fmt.Errorf("pricePerShare overflows uint256"))
	}
	return price, nil
}
