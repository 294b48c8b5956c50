package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"stableScope/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	ChainID     uint64
	Pool        string
	Address     string
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	Deposits    uint64
	Withdrawals uint64
	Volume      [2]*big.Int
	Fee         [2]*big.Int
	LPSupply    *big.Int
	LastSeq     uint64
	LastTS      uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:     record.ChainID,
		Pool:        record.Pool,
		Address:     record.Address,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume:      [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		Fee:         [2]*big.Int{big.NewInt(0), big.NewInt(0)},
		LastSeq:     record.Seq,
		LastTS:      record.Timestamp,
	}
}

// AddEvent folds record into the window. swapFee is the pool fee in effect
// for the record, over the 1e10 fee denominator.
func (a *Accumulator) AddEvent(record model.TypedEventRecord, swapFee uint64) error {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
		a.LastSeq = record.Seq
	}

	switch record.EventName {
	case "TokenSwap":
		var swap model.TokenSwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap, swapFee)
	case "AddLiquidity", "RemoveLiquidityImbalance", "RemoveLiquidity":
		var liquidity model.LiquidityEventData
		if err := json.Unmarshal(record.Decoded, &liquidity); err != nil {
			return fmt.Errorf("decode liquidity: %w", err)
		}
		return a.applyLiquidity(record.EventName, liquidity)
	case "RemoveLiquidityOne":
		var removed model.RemoveLiquidityOneEventData
		if err := json.Unmarshal(record.Decoded, &removed); err != nil {
			return fmt.Errorf("decode remove one: %w", err)
		}
		supply, err := parseBigInt(removed.LPTokenSupply)
		if err != nil {
			return err
		}
		a.Withdrawals++
		a.LPSupply = supply
		return nil
	default:
		return nil
	}
}

func (a *Accumulator) applySwap(swap model.TokenSwapEventData, swapFee uint64) error {
	if swap.SoldID > 1 || swap.BoughtID > 1 || swap.SoldID == swap.BoughtID {
		return fmt.Errorf("invalid swap token ids %d -> %d", swap.SoldID, swap.BoughtID)
	}
	sold, err := parseBigInt(swap.TokensSold)
	if err != nil {
		return err
	}
	bought, err := parseBigInt(swap.TokensBought)
	if err != nil {
		return err
	}

	a.Volume[swap.SoldID].Add(a.Volume[swap.SoldID], sold)
	a.Volume[swap.BoughtID].Add(a.Volume[swap.BoughtID], bought)
	fee := feeFromOutput(bought, swapFee)
	a.Fee[swap.BoughtID].Add(a.Fee[swap.BoughtID], fee)
	a.SwapCount++
	return nil
}

func (a *Accumulator) applyLiquidity(name string, liquidity model.LiquidityEventData) error {
	for i, raw := range liquidity.Fees {
		fee, err := parseBigInt(raw)
		if err != nil {
			return err
		}
		a.Fee[i].Add(a.Fee[i], fee)
	}
	supply, err := parseBigInt(liquidity.LPTokenSupply)
	if err != nil {
		return err
	}
	a.LPSupply = supply
	if name == "AddLiquidity" {
		a.Deposits++
	} else {
		a.Withdrawals++
	}
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

// feeFromOutput recovers the swap fee from the amount the trader received.
// The pool charges fee on the gross output, so fee = out*f/(1e10-f).
func feeFromOutput(out *big.Int, swapFee uint64) *big.Int {
	if out == nil || swapFee == 0 || swapFee >= feeDenominator {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(out, new(big.Int).SetUint64(swapFee))
	return fee.Div(fee, new(big.Int).SetUint64(feeDenominator-swapFee))
}
