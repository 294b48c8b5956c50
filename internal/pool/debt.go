package pool

import (
	"fmt"

	"github.com/holiman/uint256"

	"stableScope/internal/curve"
)

// Debt returns the amount of token0 that, swapped into the pool, moves it
// to the oracle price. It is zero when token0 is already at or above half
// of the invariant.
func (p *Pool) Debt() (*uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	price, err := p.currentPrice()
	if err != nil {
		return nil, fmt.Errorf("debt: %w", err)
	}
	debt, err := p.debtAt(price, p.amp.APrecise(p.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("debt: %w", err)
	}
	return debt, nil
}

// DebtAt is Debt evaluated at an explicit price.
func (p *Pool) DebtAt(price *uint256.Int) (*uint256.Int, error) {
	if price == nil || price.IsZero() {
		return nil, fmt.Errorf("debt: %w", precondition("price is zero"))
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	debt, err := p.debtAt(price, p.amp.APrecise(p.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("debt: %w", err)
	}
	return debt, nil
}

func (p *Pool) debtAt(price, a *uint256.Int) (*uint256.Int, error) {
	var c curve.Calc
	xps := xp(&c, p.balances, price)
	if err := numeric(&c); err != nil {
		return nil, err
	}
	d, err := computeD(xps, a)
	if err != nil {
		return nil, err
	}

	half := new(uint256.Int).Rsh(d, 1)
	if !xps[0].Lt(half) {
		return new(uint256.Int), nil
	}
	dy := c.Sub(xps[1], half)
	feeHalf := c.Div(c.MulDiv(dy, p.swapFee, feeDenominator), uint256.NewInt(2))
	debt := c.Add(c.Sub(half, xps[0]), feeHalf)
	if err := numeric(&c); err != nil {
		return nil, err
	}
	return debt, nil
}
