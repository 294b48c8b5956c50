package model

// TokenSwapEventData is the decoded TokenSwap event payload.
type TokenSwapEventData struct {
	Buyer        string `json:"buyer"`
	TokensSold   string `json:"tokens_sold"`
	TokensBought string `json:"tokens_bought"`
	SoldID       uint8  `json:"sold_id"`
	BoughtID     uint8  `json:"bought_id"`
}

// LiquidityEventData is the decoded payload shared by AddLiquidity,
// RemoveLiquidity and RemoveLiquidityImbalance. RemoveLiquidity carries no
// fees or invariant.
type LiquidityEventData struct {
	Provider      string    `json:"provider"`
	TokenAmounts  [2]string `json:"token_amounts"`
	Fees          [2]string `json:"fees,omitempty"`
	Invariant     string    `json:"invariant,omitempty"`
	LPTokenSupply string    `json:"lp_token_supply"`
}

// RemoveLiquidityOneEventData is the decoded RemoveLiquidityOne payload.
type RemoveLiquidityOneEventData struct {
	Provider      string `json:"provider"`
	LPTokenAmount string `json:"lp_token_amount"`
	LPTokenSupply string `json:"lp_token_supply"`
	BoughtID      uint8  `json:"bought_id"`
	TokensBought  string `json:"tokens_bought"`
}

// FeeEventData is the decoded NewSwapFee / NewAdminFee payload.
type FeeEventData struct {
	Fee string `json:"fee"`
}

// RampAEventData is the decoded RampA payload. A values are precise.
type RampAEventData struct {
	OldA        string `json:"old_a"`
	NewA        string `json:"new_a"`
	InitialTime uint64 `json:"initial_time"`
	FutureTime  uint64 `json:"future_time"`
}

// StopRampAEventData is the decoded StopRampA payload.
type StopRampAEventData struct {
	CurrentA string `json:"current_a"`
	Time     uint64 `json:"time"`
}

// PauseEventData is the decoded Paused / Unpaused payload.
type PauseEventData struct {
	Account string `json:"account"`
}
