package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableScope/internal/config"
	"stableScope/internal/oracle"
	"stableScope/internal/pool"
)

type amount struct {
	Raw   string `json:"raw"`
	Units string `json:"units"`
}

func newAmount(v *uint256.Int) *amount {
	if v == nil {
		return nil
	}
	return &amount{Raw: v.Dec(), Units: decimal.NewFromBigInt(v.ToBig(), -18).String()}
}

type swapQuote struct {
	From int     `json:"from"`
	To   int     `json:"to"`
	Dx   *amount `json:"dx"`
	Dy   *amount `json:"dy"`
}

type withdrawOneQuote struct {
	Index  int     `json:"index"`
	LP     *amount `json:"lp"`
	Amount *amount `json:"amount"`
}

type quoteResult struct {
	Pool         string            `json:"pool"`
	Seq          uint64            `json:"seq"`
	Timestamp    uint64            `json:"timestamp"`
	Price        *amount           `json:"price"`
	A            string            `json:"a"`
	SwapFee      string            `json:"swap_fee"`
	Paused       bool              `json:"paused"`
	Balances     [2]*amount        `json:"balances"`
	VirtualPrice *amount           `json:"virtual_price,omitempty"`
	Swap         *swapQuote        `json:"swap,omitempty"`
	DepositLP    *amount           `json:"deposit_lp,omitempty"`
	Withdraw     []*amount         `json:"withdraw,omitempty"`
	WithdrawOne  *withdrawOneQuote `json:"withdraw_one,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
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
	if price == nil {
		return fmt.Errorf("price is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := requireSnapshot(ctx, cfg.Store, cfg.Pool, logger)
	if err != nil {
		return err
	}
	clock := pool.NewManualClock(snap.Timestamp)
	p, err := restorePool(snap, oracle.NewFeed(price), clock, logger)
	if err != nil {
		return err
	}

	balances := p.Balances()
	result := quoteResult{
		Pool:      snap.Pool,
		Seq:       snap.Seq,
		Timestamp: snap.Timestamp,
		Price:     newAmount(price),
		A:         p.A().Dec(),
		SwapFee:   p.SwapFee().Dec(),
		Paused:    p.Paused(),
		Balances:  [2]*amount{newAmount(balances[0]), newAmount(balances[1])},
	}
	if vp, err := p.VirtualPrice(); err == nil {
		result.VirtualPrice = newAmount(vp)
	} else {
		logger.Debug("virtual price unavailable", zap.Error(err))
	}

	dx, err := config.ParseAmount(cfg.Amount)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	if dx != nil {
		dy, err := p.CalculateSwap(cfg.From, cfg.To, dx)
		if err != nil {
			return fmt.Errorf("quote swap: %w", err)
		}
		result.Swap = &swapQuote{From: cfg.From, To: cfg.To, Dx: newAmount(dx), Dy: newAmount(dy)}
	}

	if len(cfg.Deposit) > 0 {
		amounts, err := config.ParseAmountPair(cfg.Deposit)
		if err != nil {
			return fmt.Errorf("parse deposit: %w", err)
		}
		lp, err := p.CalculateTokenAmount(amounts, true)
		if err != nil {
			return fmt.Errorf("quote deposit: %w", err)
		}
		result.DepositLP = newAmount(lp)
	}

	lp, err := config.ParseAmount(cfg.Withdraw)
	if err != nil {
		return fmt.Errorf("parse withdraw: %w", err)
	}
	if lp != nil {
		out, err := p.CalculateRemoveLiquidity(lp)
		if err != nil {
			return fmt.Errorf("quote withdraw: %w", err)
		}
		result.Withdraw = []*amount{newAmount(out[0]), newAmount(out[1])}
	}

	lpOne, err := config.ParseAmount(cfg.WithdrawOne)
	if err != nil {
		return fmt.Errorf("parse withdraw-one: %w", err)
	}
	if lpOne != nil {
		out, err := p.CalculateRemoveLiquidityOneToken(lpOne, cfg.Index)
		if err != nil {
			return fmt.Errorf("quote withdraw-one: %w", err)
		}
		result.WithdrawOne = &withdrawOneQuote{Index: cfg.Index, LP: newAmount(lpOne), Amount: newAmount(out)}
	}

	return writeJSON(result)
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
