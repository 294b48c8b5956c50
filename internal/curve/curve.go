// Package curve solves the two-asset StableSwap invariant
//
//	A·n^n·Σx + D = A·D·n^n + D^(n+1) / (n^n·Πx)
//
// with Newton-Raphson iteration over checked 256-bit integers. Amplification
// values are precise (scaled by APrecision) and every division floors, so the
// invariant is never reported above its true value.
package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	NumTokens      = 2
	APrecision     = 100
	MaxLoopLimit   = 256
	FeeDenominator = 10_000_000_000
)

var (
	ErrConvergence = errors.New("invariant did not converge")
	ErrSameToken   = errors.New("cannot compare token to itself")
	ErrTokenIndex  = errors.New("token index out of range")
)

var (
	numTokens        = uint256.NewInt(NumTokens)
	numTokensPlusOne = uint256.NewInt(NumTokens + 1)
	aPrecision       = uint256.NewInt(APrecision)
	two              = uint256.NewInt(2)
	feePerTokenNum   = uint256.NewInt(NumTokens)
	feePerTokenDen   = uint256.NewInt(4 * (NumTokens - 1))
)

// Balances holds one amount per pooled token.
type Balances [NumTokens]*uint256.Int

// ComputeD returns the invariant for the priced balances xp at precise
// amplification a. It fails with ErrConvergence when MaxLoopLimit iterations
// pass without the estimate settling within 1.
func ComputeD(xp Balances, a *uint256.Int) (*uint256.Int, error) {
	var c Calc
	s := new(uint256.Int)
	for _, x := range xp {
		s = c.Add(s, x)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	if s.IsZero() {
		return new(uint256.Int), nil
	}

	d := s.Clone()
	nA := c.Mul(a, numTokens)
	for i := 0; i < MaxLoopLimit; i++ {
		dP := d.Clone()
		for _, x := range xp {
			dP = c.Div(c.Mul(dP, d), c.Mul(x, numTokens))
		}
		prev := d
		num := c.Mul(c.Add(c.Div(c.Mul(nA, s), aPrecision), c.Mul(dP, numTokens)), d)
		den := c.Add(c.Div(c.Mul(c.Sub(nA, aPrecision), d), aPrecision), c.Mul(numTokensPlusOne, dP))
		d = c.Div(num, den)
		if err := c.Err(); err != nil {
			return nil, err
		}
		if Within1(d, prev) {
			return d, nil
		}
	}
	return nil, ErrConvergence
}

// ComputeY returns the priced balance of token `to` that keeps the invariant
// of xp unchanged once token `from` holds the priced balance x.
func ComputeY(a *uint256.Int, from, to int, x *uint256.Int, xp Balances) (*uint256.Int, error) {
	if from == to {
		return nil, ErrSameToken
	}
	if from < 0 || from >= NumTokens || to < 0 || to >= NumTokens {
		return nil, ErrTokenIndex
	}

	d, err := ComputeD(xp, a)
	if err != nil {
		return nil, err
	}

	var c Calc
	acc := d.Clone()
	s := new(uint256.Int)
	nA := c.Mul(numTokens, a)
	for i := 0; i < NumTokens; i++ {
		var xi *uint256.Int
		switch {
		case i == from:
			xi = x
		case i != to:
			xi = xp[i]
		default:
			continue
		}
		s = c.Add(s, xi)
		acc = c.Div(c.Mul(acc, d), c.Mul(xi, numTokens))
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return solveY(acc, s, d, nA)
}

// ComputeYD returns the priced balance of token index that brings the
// invariant to d while every other balance in xp stays fixed.
func ComputeYD(a *uint256.Int, index int, xp Balances, d *uint256.Int) (*uint256.Int, error) {
	if index < 0 || index >= NumTokens {
		return nil, ErrTokenIndex
	}

	var c Calc
	acc := d.Clone()
	s := new(uint256.Int)
	nA := c.Mul(a, numTokens)
	for i := 0; i < NumTokens; i++ {
		if i == index {
			continue
		}
		s = c.Add(s, xp[i])
		acc = c.Div(c.Mul(acc, d), c.Mul(xp[i], numTokens))
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return solveY(acc, s, d, nA)
}

// solveY iterates y = (y² + c) / (2y + b - D) starting from y = D.
func solveY(acc, s, d, nA *uint256.Int) (*uint256.Int, error) {
	var c Calc
	acc = c.Div(c.Mul(c.Mul(acc, d), aPrecision), c.Mul(nA, numTokens))
	b := c.Add(s, c.Div(c.Mul(d, aPrecision), nA))
	if err := c.Err(); err != nil {
		return nil, err
	}

	y := d.Clone()
	for i := 0; i < MaxLoopLimit; i++ {
		prev := y
		y = c.Div(c.Add(c.Mul(y, y), acc), c.Sub(c.Add(c.Mul(y, two), b), d))
		if err := c.Err(); err != nil {
			return nil, err
		}
		if Within1(y, prev) {
			return y, nil
		}
	}
	return nil, ErrConvergence
}

// FeePerToken returns the imbalance fee rate swapFee·n / (4·(n-1)).
func FeePerToken(swapFee *uint256.Int) (*uint256.Int, error) {
	var c Calc
	fee := c.Div(c.Mul(swapFee, feePerTokenNum), feePerTokenDen)
	return fee, c.Err()
}
