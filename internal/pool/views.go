package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableScope/internal/curve"
)

func (p *Pool) Name() string            { return p.name }
func (p *Pool) Symbol() string          { return p.symbol }
func (p *Pool) Address() common.Address { return p.address }
func (p *Pool) Owner() common.Address   { return p.owner }
func (p *Pool) TokenID() uint64         { return p.tokenID }

func (p *Pool) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

func (p *Pool) SwapFee() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.swapFee.Clone()
}

func (p *Pool) AdminFee() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.adminFee.Clone()
}

// A returns the current amplification without precision.
func (p *Pool) A() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.amp.A(p.clock.Now())
}

// APrecise returns the current amplification scaled by curve.APrecision.
func (p *Pool) APrecise() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.amp.APrecise(p.clock.Now())
}

func (p *Pool) TokenBalance(index int) (*uint256.Int, error) {
	if err := checkIndex(index, ErrTokenIndex); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[index].Clone(), nil
}

func (p *Pool) AdminBalance(index int) (*uint256.Int, error) {
	if err := checkIndex(index, ErrTokenIndex); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.adminBalances[index].Clone(), nil
}

// Balances returns both pool balances, excluding admin fees.
func (p *Pool) Balances() [2]*uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneAmounts(p.balances)
}

// VirtualPrice returns D·1e18 / LP supply, or zero for an empty pool.
func (p *Pool) VirtualPrice() (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	vp, err := p.virtualPrice(p.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("virtual price: %w", err)
	}
	return vp, nil
}

func (p *Pool) virtualPrice(now uint64) (*uint256.Int, error) {
	supply := p.ledger.TotalSupply()
	if supply.IsZero() {
		return new(uint256.Int), nil
	}
	price, err := p.currentPrice()
	if err != nil {
		return nil, err
	}
	var c curve.Calc
	d, err := computeD(xp(&c, p.balances, price), p.amp.APrecise(now))
	if err != nil {
		return nil, err
	}
	vp := c.MulDiv(d, priceScale, supply)
	return vp, numeric(&c)
}

// CalculateSwap quotes Swap without executing it.
func (p *Pool) CalculateSwap(from, to int, dx *uint256.Int) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, err := p.currentPrice()
	if err != nil {
		return nil, fmt.Errorf("calculate swap: %w", err)
	}
	q, err := p.quoteSwap(from, to, dx, price, p.amp.APrecise(p.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("calculate swap: %w", err)
	}
	return q.dy, nil
}

// CalculateTokenAmount estimates the LP shares minted by a deposit or burned
// by an imbalanced withdrawal of amounts. Fees are not included.
func (p *Pool) CalculateTokenAmount(amounts [2]*uint256.Int, deposit bool) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out, err := p.calculateTokenAmount(amounts, deposit)
	if err != nil {
		return nil, fmt.Errorf("calculate token amount: %w", err)
	}
	return out, nil
}

func (p *Pool) calculateTokenAmount(amounts [2]*uint256.Int, deposit bool) (*uint256.Int, error) {
	if err := validAmounts(amounts); err != nil {
		return nil, err
	}
	price, err := p.currentPrice()
	if err != nil {
		return nil, err
	}
	a := p.amp.APrecise(p.clock.Now())
	supply := p.ledger.TotalSupply()

	var c curve.Calc
	d0, err := computeD(xp(&c, p.balances, price), a)
	if err != nil {
		return nil, err
	}
	var next [2]*uint256.Int
	for i := range next {
		if deposit {
			next[i] = c.Add(p.balances[i], amounts[i])
			continue
		}
		if amounts[i].Gt(p.balances[i]) {
			return nil, ErrExceedsAvailable
		}
		next[i] = c.Sub(p.balances[i], amounts[i])
	}
	if err := numeric(&c); err != nil {
		return nil, err
	}
	d1, err := computeD(xp(&c, next, price), a)
	if err != nil {
		return nil, err
	}

	if supply.IsZero() {
		if deposit {
			return d1, nil
		}
		return nil, ErrEmptyPool
	}
	var diff *uint256.Int
	if deposit {
		diff = c.Sub(d1, d0)
	} else {
		diff = c.Sub(d0, d1)
	}
	out := c.MulDiv(diff, supply, d0)
	return out, numeric(&c)
}

// CalculateRemoveLiquidity returns the balanced withdrawal for lpAmount.
func (p *Pool) CalculateRemoveLiquidity(lpAmount *uint256.Int) ([2]*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out, err := p.proportionalShare(lpAmount, p.ledger.TotalSupply())
	if err != nil {
		return [2]*uint256.Int{}, fmt.Errorf("calculate remove liquidity: %w", err)
	}
	return out, nil
}

// CalculateRemoveLiquidityOneToken returns the amount of token index paid
// for burning lpAmount.
func (p *Pool) CalculateRemoveLiquidityOneToken(lpAmount *uint256.Int, index int) (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, err := p.currentPrice()
	if err != nil {
		return nil, fmt.Errorf("calculate remove liquidity one token: %w", err)
	}
	dy, _, err := p.withdrawOneToken(lpAmount, index, p.ledger.TotalSupply(), price, p.amp.APrecise(p.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("calculate remove liquidity one token: %w", err)
	}
	return dy, nil
}
