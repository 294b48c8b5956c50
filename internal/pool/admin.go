package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"stableScope/internal/curve"
)

// RampA starts a linear change of the amplification to futureA (not
// precise), ending at futureTime.
func (p *Pool) RampA(caller common.Address, futureA, futureTime uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return fmt.Errorf("ramp A: %w", err)
	}
	now := p.clock.Now()
	old := p.amp.APrecise(now)
	if err := p.amp.RampA(futureA, futureTime, now); err != nil {
		return fmt.Errorf("ramp A: %w", wrap(ErrPrecondition, err))
	}

	state := p.amp.State()
	p.logger.Info("ramp A",
		zap.String("initial_a", old.Dec()),
		zap.String("future_a", state.FutureA.Dec()),
		zap.Uint64("future_time", futureTime),
	)
	p.emit(now, RampA{
		OldA:        old,
		NewA:        state.FutureA,
		InitialTime: now,
		FutureTime:  futureTime,
	})
	return nil
}

// StopRampA freezes the amplification at its current value.
func (p *Pool) StopRampA(caller common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return fmt.Errorf("stop ramp A: %w", err)
	}
	now := p.clock.Now()
	if err := p.amp.StopRampA(now); err != nil {
		return fmt.Errorf("stop ramp A: %w", wrap(ErrPrecondition, err))
	}

	current := p.amp.APrecise(now)
	p.logger.Info("stop ramp A", zap.String("current_a", current.Dec()))
	p.emit(now, StopRampA{CurrentA: current, Time: now})
	return nil
}

// SetSwapFee updates the swap fee; MaxSwapFee itself is allowed.
func (p *Pool) SetSwapFee(caller common.Address, fee uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return fmt.Errorf("set swap fee: %w", err)
	}
	if fee > MaxSwapFee {
		return fmt.Errorf("set swap fee: %w", ErrFeeTooHigh)
	}
	p.swapFee = uint256.NewInt(fee)
	p.logger.Info("set swap fee", zap.Uint64("swap_fee", fee))
	p.emit(p.clock.Now(), NewSwapFee{NewSwapFee: uint256.NewInt(fee)})
	return nil
}

// SetAdminFee updates the admin share of fees; MaxAdminFee itself is allowed.
func (p *Pool) SetAdminFee(caller common.Address, fee uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return fmt.Errorf("set admin fee: %w", err)
	}
	if fee > MaxAdminFee {
		return fmt.Errorf("set admin fee: %w", ErrFeeTooHigh)
	}
	p.adminFee = uint256.NewInt(fee)
	p.logger.Info("set admin fee", zap.Uint64("admin_fee", fee))
	p.emit(p.clock.Now(), NewAdminFee{NewAdminFee: uint256.NewInt(fee)})
	return nil
}

// WithdrawAdminFees pays out and resets the accrued admin balances.
func (p *Pool) WithdrawAdminFees(caller common.Address) ([2]*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return [2]*uint256.Int{}, fmt.Errorf("withdraw admin fees: %w", err)
	}
	out := p.adminBalances
	for i := 0; i < curve.NumTokens; i++ {
		p.adminBalances[i] = new(uint256.Int)
	}
	p.logger.Info("withdraw admin fees",
		zap.String("token0", out[0].Dec()),
		zap.String("token1", out[1].Dec()),
	)
	return out, nil
}

func (p *Pool) Pause(caller common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if p.paused {
		return fmt.Errorf("pause: %w", ErrPaused)
	}
	p.paused = true
	p.logger.Info("paused", zap.Stringer("account", caller))
	p.emit(p.clock.Now(), Paused{Account: caller})
	return nil
}

func (p *Pool) Unpause(caller common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.onlyOwner(caller); err != nil {
		return fmt.Errorf("unpause: %w", err)
	}
	if !p.paused {
		return fmt.Errorf("unpause: %w", ErrNotPaused)
	}
	p.paused = false
	p.logger.Info("unpaused", zap.Stringer("account", caller))
	p.emit(p.clock.Now(), Unpaused{Account: caller})
	return nil
}
