package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"stableScope/internal/curve"
)

type swapQuote struct {
	dy    *uint256.Int
	admin *uint256.Int
}

// Swap sells dx of token from for at least minDy of token to.
func (p *Pool) Swap(caller common.Address, from, to int, dx, minDy *uint256.Int, deadline uint64) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dy, err := p.swap(caller, from, to, dx, minDy, deadline)
	if err != nil {
		p.logger.Debug("swap failed", zap.Stringer("caller", caller), zap.Int("from", from), zap.Int("to", to), zap.Error(err))
		return nil, fmt.Errorf("swap: %w", err)
	}
	return dy, nil
}

func (p *Pool) swap(caller common.Address, from, to int, dx, minDy *uint256.Int, deadline uint64) (*uint256.Int, error) {
	now := p.clock.Now()
	if err := p.checkLive(now, deadline); err != nil {
		return nil, err
	}
	price, err := p.currentPrice()
	if err != nil {
		return nil, err
	}
	q, err := p.quoteSwap(from, to, dx, price, p.amp.APrecise(now))
	if err != nil {
		return nil, err
	}
	if minDy != nil && q.dy.Lt(minDy) {
		return nil, ErrSwapBelowMin
	}

	var c curve.Calc
	balances := cloneAmounts(p.balances)
	balances[from] = c.Add(balances[from], dx)
	balances[to] = c.Sub(balances[to], c.Add(q.dy, q.admin))
	adminBalances := cloneAmounts(p.adminBalances)
	adminBalances[to] = c.Add(adminBalances[to], q.admin)
	if err := numeric(&c); err != nil {
		return nil, err
	}

	p.balances = balances
	p.adminBalances = adminBalances
	p.emit(now, TokenSwap{
		Buyer:        caller,
		TokensSold:   dx.Clone(),
		TokensBought: q.dy.Clone(),
		SoldID:       uint8(from),
		BoughtID:     uint8(to),
	})
	return q.dy, nil
}

// quoteSwap prices a swap against the current balances. The fee is taken
// from the output in priced units and converted back to token units
// separately from the gross amount.
func (p *Pool) quoteSwap(from, to int, dx, price, a *uint256.Int) (swapQuote, error) {
	if err := checkIndex(from, ErrTokenIndex); err != nil {
		return swapQuote{}, err
	}
	if err := checkIndex(to, ErrTokenIndex); err != nil {
		return swapQuote{}, err
	}
	if from == to {
		return swapQuote{}, ErrSameToken
	}

	var c curve.Calc
	xps := xp(&c, p.balances, price)
	x := pricedIn(&c, c.Add(dx, p.balances[from]), from, price)
	if err := numeric(&c); err != nil {
		return swapQuote{}, err
	}
	y, err := curve.ComputeY(a, from, to, x, xps)
	if err != nil {
		return swapQuote{}, wrap(ErrNumeric, err)
	}

	dyRaw := c.Sub(c.Sub(xps[to], y), uint256.NewInt(1))
	fee := c.MulDiv(dyRaw, p.swapFee, feeDenominator)
	dy := c.Sub(pricedOut(&c, dyRaw, to, price), pricedOut(&c, fee, to, price))
	admin := pricedOut(&c, c.MulDiv(fee, p.adminFee, feeDenominator), to, price)
	if err := numeric(&c); err != nil {
		return swapQuote{}, err
	}
	return swapQuote{dy: dy, admin: admin}, nil
}
