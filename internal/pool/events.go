package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event names, matching the Solidity event declarations.
const (
	EventTokenSwap                = "TokenSwap"
	EventAddLiquidity             = "AddLiquidity"
	EventRemoveLiquidity          = "RemoveLiquidity"
	EventRemoveLiquidityOne       = "RemoveLiquidityOne"
	EventRemoveLiquidityImbalance = "RemoveLiquidityImbalance"
	EventNewAdminFee              = "NewAdminFee"
	EventNewSwapFee               = "NewSwapFee"
	EventRampA                    = "RampA"
	EventStopRampA                = "StopRampA"
	EventPaused                   = "Paused"
	EventUnpaused                 = "Unpaused"
)

// Event is a state change published by a pool after it commits.
type Event interface {
	EventName() string
}

type TokenSwap struct {
	Buyer        common.Address
	TokensSold   *uint256.Int
	TokensBought *uint256.Int
	SoldID       uint8
	BoughtID     uint8
}

type AddLiquidity struct {
	Provider      common.Address
	TokenAmounts  [2]*uint256.Int
	Fees          [2]*uint256.Int
	Invariant     *uint256.Int
	LPTokenSupply *uint256.Int
}

type RemoveLiquidity struct {
	Provider      common.Address
	TokenAmounts  [2]*uint256.Int
	LPTokenSupply *uint256.Int
}

type RemoveLiquidityOne struct {
	Provider      common.Address
	LPTokenAmount *uint256.Int
	LPTokenSupply *uint256.Int
	BoughtID      uint8
	TokensBought  *uint256.Int
}

type RemoveLiquidityImbalance struct {
	Provider      common.Address
	TokenAmounts  [2]*uint256.Int
	Fees          [2]*uint256.Int
	Invariant     *uint256.Int
	LPTokenSupply *uint256.Int
}

type NewAdminFee struct {
	NewAdminFee *uint256.Int
}

type NewSwapFee struct {
	NewSwapFee *uint256.Int
}

// RampA carries precise amplification values.
type RampA struct {
	OldA        *uint256.Int
	NewA        *uint256.Int
	InitialTime uint64
	FutureTime  uint64
}

type StopRampA struct {
	CurrentA *uint256.Int
	Time     uint64
}

type Paused struct {
	Account common.Address
}

type Unpaused struct {
	Account common.Address
}

func (TokenSwap) EventName() string                { return EventTokenSwap }
func (AddLiquidity) EventName() string             { return EventAddLiquidity }
func (RemoveLiquidity) EventName() string          { return EventRemoveLiquidity }
func (RemoveLiquidityOne) EventName() string       { return EventRemoveLiquidityOne }
func (RemoveLiquidityImbalance) EventName() string { return EventRemoveLiquidityImbalance }
func (NewAdminFee) EventName() string              { return EventNewAdminFee }
func (NewSwapFee) EventName() string               { return EventNewSwapFee }
func (RampA) EventName() string                    { return EventRampA }
func (StopRampA) EventName() string                { return EventStopRampA }
func (Paused) EventName() string                   { return EventPaused }
func (Unpaused) EventName() string                 { return EventUnpaused }

// Envelope is what sinks receive: the event plus its position in the pool's
// history.
type Envelope struct {
	Pool      string
	Seq       uint64
	Timestamp uint64
	Event     Event
}

// Sink receives events in commit order. Publish runs while the pool is
// locked, so a sink must not call back into the pool.
type Sink interface {
	Publish(Envelope)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Envelope)

func (f SinkFunc) Publish(e Envelope) { f(e) }
