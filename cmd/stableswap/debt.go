package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stableScope/internal/chain"
	"stableScope/internal/config"
	"stableScope/internal/oracle"
	"stableScope/internal/pool"
)

type debtResult struct {
	Pool      string  `json:"pool"`
	Seq       uint64  `json:"seq"`
	Block     uint64  `json:"block,omitempty"`
	Timestamp uint64  `json:"timestamp"`
	Price     *amount `json:"price"`
	Debt      *amount `json:"debt"`
}

func runDebt(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDebt(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	price, err := config.ParseAmount(cfg.Price)
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}
	if price == nil && cfg.RPCURL == "" {
		return fmt.Errorf("either price or rpc url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := requireSnapshot(ctx, cfg.Store, cfg.Pool, logger)
	if err != nil {
		return err
	}

	result := debtResult{Pool: snap.Pool, Seq: snap.Seq, Timestamp: snap.Timestamp}
	if price == nil {
		block, at, onchain, err := readOracle(ctx, cfg, logger)
		if err != nil {
			return err
		}
		price = onchain
		result.Block = block
		if at > snap.Timestamp {
			result.Timestamp = at
		}
	}

	clock := pool.NewManualClock(result.Timestamp)
	p, err := restorePool(snap, oracle.NewFeed(price), clock, logger)
	if err != nil {
		return err
	}
	debt, err := p.Debt()
	if err != nil {
		return fmt.Errorf("compute debt: %w", err)
	}

	result.Price = newAmount(price)
	result.Debt = newAmount(debt)

	logger.Info("debt computed",
		zap.String("pool", snap.Pool),
		zap.Uint64("block", result.Block),
		zap.String("price", price.Dec()),
		zap.String("debt", debt.Dec()),
	)
	return writeJSON(result)
}

// readOracle fetches pricePerShare and the block time in parallel. The block
// is pinned first so both reads see the same height.
func readOracle(ctx context.Context, cfg config.DebtConfig, logger *zap.Logger) (block, timestamp uint64, price *uint256.Int, err error) {
	token, err := config.ParseAddress(cfg.Token)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("parse token: %w", err)
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	source, err := oracle.NewChainSource(oracle.ChainSourceConfig{
		Token:        token,
		TokenID:      new(big.Int).SetUint64(cfg.TokenID),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, client, logger)
	if err != nil {
		return 0, 0, nil, err
	}

	if block, err = client.PinBlock(ctx, cfg.Block); err != nil {
		return 0, 0, nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		price, err = source.PricePerShare(gctx, block)
		return err
	})
	g.Go(func() error {
		var err error
		timestamp, err = client.BlockTime(gctx, block)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, nil, fmt.Errorf("read oracle at block %d: %w", block, err)
	}

	logger.Info("oracle read",
		zap.String("rpc", cfg.RPCURL),
		zap.String("token", token.Hex()),
		zap.Uint64("block", block),
		zap.Uint64("timestamp", timestamp),
	)
	return block, timestamp, price, nil
}
