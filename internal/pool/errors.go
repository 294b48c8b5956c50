package pool

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a pool operation matches exactly one
// of these through errors.Is.
var (
	ErrPrecondition = errors.New("precondition failed")
	ErrSlippage     = errors.New("slippage bound exceeded")
	ErrNumeric      = errors.New("numeric failure")
	ErrUnauthorized = errors.New("caller is not the owner")
)

type poolError struct {
	class error
	msg   string
}

func (e *poolError) Error() string { return e.msg }
func (e *poolError) Unwrap() error { return e.class }

func precondition(msg string) error { return &poolError{class: ErrPrecondition, msg: msg} }
func slippage(msg string) error     { return &poolError{class: ErrSlippage, msg: msg} }

var (
	ErrDeadline           = precondition("deadline not met")
	ErrPaused             = precondition("pausable: paused")
	ErrNotPaused          = precondition("pausable: not paused")
	ErrMustSupplyAll      = precondition("must supply all tokens in pool")
	ErrInvariantNotGrown  = precondition("D should increase")
	ErrExceedsSupply      = precondition("cannot exceed total supply")
	ErrExceedsLPBalance   = precondition(">LP.balanceOf")
	ErrExceedsAvailable   = precondition("cannot withdraw more than available")
	ErrWithdrawExceeds    = precondition("withdraw exceeds available")
	ErrZeroBurn           = precondition("burnt amount cannot be zero")
	ErrTokenNotFound      = precondition("token not found")
	ErrTokenIndex         = precondition("token index out of range")
	ErrSameToken          = precondition("cannot swap token to itself")
	ErrFeeTooHigh         = precondition("fee is too high")
	ErrAExceedsMax        = precondition("_a exceeds maximum")
	ErrSwapFeeExceedsMax  = precondition("_fee exceeds maximum")
	ErrAdminFeeExceedsMax = precondition("_adminFee exceeds maximum")
	ErrZeroOwner          = precondition("owner is the zero address")
	ErrMissingDependency  = precondition("ledger and price source are required")
	ErrEmptyPool          = precondition("pool has no liquidity")
	ErrCouldNotMintMin    = slippage("couldn't mint min requested")
	ErrBelowMinAmounts    = slippage("amounts[i] < minAmounts[i]")
	ErrAboveMaxBurn       = slippage("tokenAmount > maxBurnAmount")
	ErrBelowMinDy         = slippage("dy < minAmount")
	ErrSwapBelowMin       = slippage("swap didn't result in min tokens")
)

// wrap attaches a class to an error coming from a collaborator package.
func wrap(class, err error) error {
	if err == nil {
		return nil
	}
	var pe *poolError
	if errors.As(err, &pe) {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}
