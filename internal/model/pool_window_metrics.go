package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window. Amounts are
// base-unit decimal strings; the *Units fields are in whole tokens.
type PoolWindowMetrics struct {
	ChainID        uint64    `json:"chain_id"`
	Pool           string    `json:"pool"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	SwapCount      uint64    `json:"swap_count"`
	Volume0        string    `json:"volume0"`
	Volume1        string    `json:"volume1"`
	Fee0           string    `json:"fee0"`
	Fee1           string    `json:"fee1"`
	Volume0Units   string    `json:"volume0_units"`
	Volume1Units   string    `json:"volume1_units"`
	Deposits       uint64    `json:"deposits"`
	Withdrawals    uint64    `json:"withdrawals"`
	LPSupply       *string   `json:"lp_supply,omitempty"`
}
