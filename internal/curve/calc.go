package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("uint256 overflow")
	ErrUnderflow      = errors.New("uint256 underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Calc performs checked uint256 arithmetic. The first fault sticks: later
// operations return zero and Err reports it, so a formula can
// be written as one expression and checked once.
type Calc struct {
	err error
}

// Err returns the first fault recorded by the calculator.
func (c *Calc) Err() error {
	return c.err
}

func (c *Calc) fail(err error) *uint256.Int {
	if c.err == nil {
		c.err = err
	}
	return new(uint256.Int)
}

func (c *Calc) Add(x, y *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return c.fail(ErrOverflow)
	}
	return z
}

func (c *Calc) Sub(x, y *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return c.fail(ErrUnderflow)
	}
	return z
}

func (c *Calc) Mul(x, y *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return c.fail(ErrOverflow)
	}
	return z
}

// Div is floor division. A zero divisor is a fault, not zero.
func (c *Calc) Div(x, y *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	if y.IsZero() {
		return c.fail(ErrDivisionByZero)
	}
	return new(uint256.Int).Div(x, y)
}

// MulDiv computes x*y/d with the product checked for overflow first.
func (c *Calc) MulDiv(x, y, d *uint256.Int) *uint256.Int {
	return c.Div(c.Mul(x, y), d)
}

// AbsDiff returns |x - y|.
func (c *Calc) AbsDiff(x, y *uint256.Int) *uint256.Int {
	if c.err != nil {
		return new(uint256.Int)
	}
	if x.Gt(y) {
		return new(uint256.Int).Sub(x, y)
	}
	return new(uint256.Int).Sub(y, x)
}

// Within1 reports whether x and y differ by at most one.
func Within1(x, y *uint256.Int) bool {
	if x.Gt(y) {
		return new(uint256.Int).Sub(x, y).LtUint64(2)
	}
	return new(uint256.Int).Sub(y, x).LtUint64(2)
}
