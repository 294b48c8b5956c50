package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"stableScope/internal/curve"
)

func numeric(c *curve.Calc) error {
	return wrap(ErrNumeric, c.Err())
}

// imbalanceFees charges feePerToken on each token's distance from its ideal
// share of d1. It returns the balances to commit (admin share removed), the
// fee-adjusted balances used for the post-fee invariant, and the fees.
func (p *Pool) imbalanceFees(c *curve.Calc, fpt *uint256.Int, old, next [2]*uint256.Int, d0, d1 *uint256.Int) (commit, adjusted, fees, admin [2]*uint256.Int) {
	for i := range old {
		ideal := c.MulDiv(d1, old[i], d0)
		fees[i] = c.MulDiv(fpt, c.AbsDiff(ideal, next[i]), feeDenominator)
		admin[i] = c.MulDiv(fees[i], p.adminFee, feeDenominator)
		commit[i] = c.Sub(next[i], admin[i])
		adjusted[i] = c.Sub(next[i], fees[i])
	}
	return commit, adjusted, fees, admin
}

// AddLiquidity deposits amounts and mints LP shares to caller. The first
// deposit must carry both tokens and mints the invariant itself.
func (p *Pool) AddLiquidity(caller common.Address, amounts [2]*uint256.Int, minToMint *uint256.Int, deadline uint64) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	minted, err := p.addLiquidity(caller, amounts, minToMint, deadline)
	if err != nil {
		p.logger.Debug("add liquidity failed", zap.Stringer("caller", caller), zap.Error(err))
		return nil, fmt.Errorf("add liquidity: %w", err)
	}
	return minted, nil
}

func (p *Pool) addLiquidity(caller common.Address, amounts [2]*uint256.Int, minToMint *uint256.Int, deadline uint64) (*uint256.Int, error) {
	now := p.clock.Now()
	if err := p.checkLive(now, deadline); err != nil {
		return nil, err
	}
	if err := validAmounts(amounts); err != nil {
		return nil, err
	}

	supply := p.ledger.TotalSupply()
	for i := range amounts {
		if amounts[i].IsZero() && (supply.IsZero() || (p.requireAll && !p.balances[i].IsZero())) {
			return nil, ErrMustSupplyAll
		}
	}

	price, err := p.currentPrice()
	if err != nil {
		return nil, err
	}
	a := p.amp.APrecise(now)

	var c curve.Calc
	d0 := new(uint256.Int)
	if !supply.IsZero() {
		if d0, err = computeD(xp(&c, p.balances, price), a); err != nil {
			return nil, err
		}
	}

	var next [2]*uint256.Int
	for i := range next {
		next[i] = c.Add(p.balances[i], amounts[i])
	}
	if err := numeric(&c); err != nil {
		return nil, err
	}
	d1, err := computeD(xp(&c, next, price), a)
	if err != nil {
		return nil, err
	}
	if !d1.Gt(d0) {
		return nil, ErrInvariantNotGrown
	}

	commit := next
	adminBalances := cloneAmounts(p.adminBalances)
	fees := [2]*uint256.Int{new(uint256.Int), new(uint256.Int)}
	d2, minted := d1, d1.Clone()
	if !supply.IsZero() {
		fpt, err := curve.FeePerToken(p.swapFee)
		if err != nil {
			return nil, wrap(ErrNumeric, err)
		}
		var adjusted, admin [2]*uint256.Int
		commit, adjusted, fees, admin = p.imbalanceFees(&c, fpt, p.balances, next, d0, d1)
		for i := range admin {
			adminBalances[i] = c.Add(adminBalances[i], admin[i])
		}
		if err := numeric(&c); err != nil {
			return nil, err
		}
		if d2, err = computeD(xp(&c, adjusted, price), a); err != nil {
			return nil, err
		}
		minted = c.MulDiv(c.Sub(d2, d0), supply, d0)
		if err := numeric(&c); err != nil {
			return nil, err
		}
	}

	if minToMint != nil && minted.Lt(minToMint) {
		return nil, ErrCouldNotMintMin
	}
	if err := p.ledger.Mint(caller, minted); err != nil {
		return nil, wrap(ErrPrecondition, err)
	}

	p.balances = commit
	p.adminBalances = adminBalances
	p.emit(now, AddLiquidity{
		Provider:      caller,
		TokenAmounts:  cloneAmounts(amounts),
		Fees:          fees,
		Invariant:     d2,
		LPTokenSupply: new(uint256.Int).Add(supply, minted),
	})
	return minted, nil
}

// RemoveLiquidity burns lpAmount and returns the proportional share of both
// balances. It is allowed while the pool is paused.
func (p *Pool) RemoveLiquidity(caller common.Address, lpAmount *uint256.Int, minAmounts [2]*uint256.Int, deadline uint64) ([2]*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := p.removeLiquidity(caller, lpAmount, minAmounts, deadline)
	if err != nil {
		p.logger.Debug("remove liquidity failed", zap.Stringer("caller", caller), zap.Error(err))
		return [2]*uint256.Int{}, fmt.Errorf("remove liquidity: %w", err)
	}
	return out, nil
}

func (p *Pool) removeLiquidity(caller common.Address, lpAmount *uint256.Int, minAmounts [2]*uint256.Int, deadline uint64) ([2]*uint256.Int, error) {
	now := p.clock.Now()
	if err := p.checkDeadline(now, deadline); err != nil {
		return [2]*uint256.Int{}, err
	}
	if err := validAmounts(minAmounts); err != nil {
		return [2]*uint256.Int{}, err
	}
	if lpAmount.Gt(p.ledger.BalanceOf(caller)) {
		return [2]*uint256.Int{}, ErrExceedsLPBalance
	}

	supply := p.ledger.TotalSupply()
	out, err := p.proportionalShare(lpAmount, supply)
	if err != nil {
		return [2]*uint256.Int{}, err
	}
	for i := range out {
		if out[i].Lt(minAmounts[i]) {
			return [2]*uint256.Int{}, ErrBelowMinAmounts
		}
	}

	var c curve.Calc
	var next [2]*uint256.Int
	for i := range next {
		next[i] = c.Sub(p.balances[i], out[i])
	}
	if err := numeric(&c); err != nil {
		return [2]*uint256.Int{}, err
	}
	if err := p.ledger.Burn(caller, lpAmount); err != nil {
		return [2]*uint256.Int{}, wrap(ErrPrecondition, err)
	}

	p.balances = next
	p.emit(now, RemoveLiquidity{
		Provider:      caller,
		TokenAmounts:  cloneAmounts(out),
		LPTokenSupply: new(uint256.Int).Sub(supply, lpAmount),
	})
	return out, nil
}

func (p *Pool) proportionalShare(lpAmount, supply *uint256.Int) ([2]*uint256.Int, error) {
	if lpAmount.Gt(supply) {
		return [2]*uint256.Int{}, ErrExceedsSupply
	}
	if supply.IsZero() {
		return [2]*uint256.Int{new(uint256.Int), new(uint256.Int)}, nil
	}
	var c curve.Calc
	var out [2]*uint256.Int
	for i := range out {
		out[i] = c.MulDiv(p.balances[i], lpAmount, supply)
	}
	return out, numeric(&c)
}

// RemoveLiquidityImbalance withdraws exact amounts and burns the LP shares
// they cost, charging the imbalance fee. At most maxBurn shares are burned.
func (p *Pool) RemoveLiquidityImbalance(caller common.Address, amounts [2]*uint256.Int, maxBurn *uint256.Int, deadline uint64) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	burned, err := p.removeLiquidityImbalance(caller, amounts, maxBurn, deadline)
	if err != nil {
		p.logger.Debug("remove liquidity imbalance failed", zap.Stringer("caller", caller), zap.Error(err))
		return nil, fmt.Errorf("remove liquidity imbalance: %w", err)
	}
	return burned, nil
}

func (p *Pool) removeLiquidityImbalance(caller common.Address, amounts [2]*uint256.Int, maxBurn *uint256.Int, deadline uint64) (*uint256.Int, error) {
	now := p.clock.Now()
	if err := p.checkLive(now, deadline); err != nil {
		return nil, err
	}
	if err := validAmounts(amounts); err != nil {
		return nil, err
	}
	if maxBurn == nil || maxBurn.IsZero() || maxBurn.Gt(p.ledger.BalanceOf(caller)) {
		return nil, ErrExceedsLPBalance
	}
	supply := p.ledger.TotalSupply()
	if supply.IsZero() {
		return nil, ErrEmptyPool
	}
	for i := range amounts {
		if amounts[i].Gt(p.balances[i]) {
			return nil, ErrExceedsAvailable
		}
	}

	price, err := p.currentPrice()
	if err != nil {
		return nil, err
	}
	a := p.amp.APrecise(now)

	var c curve.Calc
	d0, err := computeD(xp(&c, p.balances, price), a)
	if err != nil {
		return nil, err
	}
	var next [2]*uint256.Int
	for i := range next {
		next[i] = c.Sub(p.balances[i], amounts[i])
	}
	if err := numeric(&c); err != nil {
		return nil, err
	}
	d1, err := computeD(xp(&c, next, price), a)
	if err != nil {
		return nil, err
	}

	fpt, err := curve.FeePerToken(p.swapFee)
	if err != nil {
		return nil, wrap(ErrNumeric, err)
	}
	commit, adjusted, fees, admin := p.imbalanceFees(&c, fpt, p.balances, next, d0, d1)
	adminBalances := cloneAmounts(p.adminBalances)
	for i := range admin {
		adminBalances[i] = c.Add(adminBalances[i], admin[i])
	}
	if err := numeric(&c); err != nil {
		return nil, err
	}
	d2, err := computeD(xp(&c, adjusted, price), a)
	if err != nil {
		return nil, err
	}

	burned := c.MulDiv(c.Sub(d0, d2), supply, d0)
	if err := numeric(&c); err != nil {
		return nil, err
	}
	if burned.IsZero() {
		return nil, ErrZeroBurn
	}
	burned.AddUint64(burned, 1)
	if burned.Gt(maxBurn) {
		return nil, ErrAboveMaxBurn
	}
	if err := p.ledger.Burn(caller, burned); err != nil {
		return nil, wrap(ErrPrecondition, err)
	}

	p.balances = commit
	p.adminBalances = adminBalances
	p.emit(now, RemoveLiquidityImbalance{
		Provider:      caller,
		TokenAmounts:  cloneAmounts(amounts),
		Fees:          fees,
		Invariant:     d1,
		LPTokenSupply: new(uint256.Int).Sub(supply, burned),
	})
	return burned, nil
}

// RemoveLiquidityOneToken burns lpAmount and pays out a single token.
func (p *Pool) RemoveLiquidityOneToken(caller common.Address, lpAmount *uint256.Int, index int, minAmount *uint256.Int, deadline uint64) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	dy, err := p.removeLiquidityOneToken(caller, lpAmount, index, minAmount, deadline)
	if err != nil {
		p.logger.Debug("remove liquidity one token failed", zap.Stringer("caller", caller), zap.Int("index", index), zap.Error(err))
		return nil, fmt.Errorf("remove liquidity one token: %w", err)
	}
	return dy, nil
}

func (p *Pool) removeLiquidityOneToken(caller common.Address, lpAmount *uint256.Int, index int, minAmount *uint256.Int, deadline uint64) (*uint256.Int, error) {
	now := p.clock.Now()
	if err := p.checkLive(now, deadline); err != nil {
		return nil, err
	}
	if lpAmount.Gt(p.ledger.BalanceOf(caller)) {
		return nil, ErrExceedsLPBalance
	}
	if err := checkIndex(index, ErrTokenNotFound); err != nil {
		return nil, err
	}

	price, err := p.currentPrice()
	if err != nil {
		return nil, err
	}
	supply := p.ledger.TotalSupply()
	dy, dyFee, err := p.withdrawOneToken(lpAmount, index, supply, price, p.amp.APrecise(now))
	if err != nil {
		return nil, err
	}
	if minAmount != nil && dy.Lt(minAmount) {
		return nil, ErrBelowMinDy
	}

	var c curve.Calc
	admin := c.MulDiv(dyFee, p.adminFee, feeDenominator)
	balances := cloneAmounts(p.balances)
	balances[index] = c.Sub(balances[index], c.Add(dy, admin))
	adminBalances := cloneAmounts(p.adminBalances)
	adminBalances[index] = c.Add(adminBalances[index], admin)
	if err := numeric(&c); err != nil {
		return nil, err
	}
	if err := p.ledger.Burn(caller, lpAmount); err != nil {
		return nil, wrap(ErrPrecondition, err)
	}

	p.balances = balances
	p.adminBalances = adminBalances
	p.emit(now, RemoveLiquidityOne{
		Provider:      caller,
		LPTokenAmount: lpAmount.Clone(),
		LPTokenSupply: new(uint256.Int).Sub(supply, lpAmount),
		BoughtID:      uint8(index),
		TokensBought:  dy.Clone(),
	})
	return dy, nil
}

// withdrawOneToken returns the amount of token index paid for lpAmount and
// the fee withheld from it, both in token units.
func (p *Pool) withdrawOneToken(lpAmount *uint256.Int, index int, supply, price, a *uint256.Int) (dy, dyFee *uint256.Int, err error) {
	if err := checkIndex(index, ErrTokenIndex); err != nil {
		return nil, nil, err
	}
	if lpAmount.Gt(supply) {
		return nil, nil, ErrWithdrawExceeds
	}
	if supply.IsZero() {
		return nil, nil, ErrEmptyPool
	}

	var c curve.Calc
	xps := xp(&c, p.balances, price)
	d0, err := computeD(xps, a)
	if err != nil {
		return nil, nil, err
	}
	d1 := c.Sub(d0, c.MulDiv(lpAmount, d0, supply))
	if err := numeric(&c); err != nil {
		return nil, nil, err
	}
	newY, err := curve.ComputeYD(a, index, xps, d1)
	if err != nil {
		return nil, nil, wrap(ErrNumeric, err)
	}

	fpt, err := curve.FeePerToken(p.swapFee)
	if err != nil {
		return nil, nil, wrap(ErrNumeric, err)
	}
	var reduced curve.Balances
	for i, x := range xps {
		var expected *uint256.Int
		if i == index {
			expected = c.Sub(c.MulDiv(x, d1, d0), newY)
		} else {
			expected = c.Sub(x, c.MulDiv(x, d1, d0))
		}
		reduced[i] = c.Sub(x, c.MulDiv(expected, fpt, feeDenominator))
	}
	if err := numeric(&c); err != nil {
		return nil, nil, err
	}

	y, err := curve.ComputeYD(a, index, reduced, d1)
	if err != nil {
		return nil, nil, wrap(ErrNumeric, err)
	}
	dy = c.Sub(c.Sub(reduced[index], y), uint256.NewInt(1))
	dy = pricedOut(&c, dy, index, price)
	dyFee = c.Sub(pricedOut(&c, c.Sub(xps[index], newY), index, price), dy)
	if err := numeric(&c); err != nil {
		return nil, nil, err
	}
	return dy, dyFee, nil
}
