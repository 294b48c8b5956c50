package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// PoolSnapshot is the persisted state of a pool after a given event.
type PoolSnapshot struct {
	Pool          string                          `json:"pool"`
	Symbol        string                          `json:"symbol"`
	Address       common.Address                  `json:"address"`
	Owner         common.Address                  `json:"owner"`
	TokenID       uint64                          `json:"token_id"`
	Seq           uint64                          `json:"seq"`
	Timestamp     uint64                          `json:"timestamp"`
	Balances      [2]*uint256.Int                 `json:"balances"`
	AdminBalances [2]*uint256.Int                 `json:"admin_balances"`
	SwapFee       *uint256.Int                    `json:"swap_fee"`
	AdminFee      *uint256.Int                    `json:"admin_fee"`
	InitialA      *uint256.Int                    `json:"initial_a"`
	FutureA       *uint256.Int                    `json:"future_a"`
	InitialATime  uint64                          `json:"initial_a_time"`
	FutureATime   uint64                          `json:"future_a_time"`
	Paused        bool                            `json:"paused"`
	LPTotalSupply *uint256.Int                    `json:"lp_total_supply"`
	LPHolders     map[common.Address]*uint256.Int `json:"lp_holders,omitempty"`
	VirtualPrice  *uint256.Int                    `json:"virtual_price,omitempty"`
}
