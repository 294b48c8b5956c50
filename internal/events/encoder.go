// Package events converts pool events to and from ABI-encoded log records
// using the Solidity event signatures of the pool contract, so journals can
// be read by standard EVM tooling.
package events

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"stableScope/internal/model"
	"stableScope/internal/pool"
)

// Encoder turns pool envelopes into log records.
type Encoder struct {
	poolABI abi.ABI
	chainID uint64
	address common.Address
}

func NewEncoder(chainID uint64, address common.Address) (*Encoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	return &Encoder{poolABI: poolABI, chainID: chainID, address: address}, nil
}

// Encode packs env into a log record. Indexed arguments become topics.
func (e *Encoder) Encode(env pool.Envelope) (model.LogRecord, error) {
	name := env.Event.EventName()
	event, ok := e.poolABI.Events[name]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unsupported event: %s", name)
	}

	var (
		indexed []common.Hash
		args    []interface{}
	)
	switch ev := env.Event.(type) {
	case pool.TokenSwap:
		indexed = []common.Hash{addressTopic(ev.Buyer)}
		args = []interface{}{toBig(ev.TokensSold), toBig(ev.TokensBought), new(big.Int).SetUint64(uint64(ev.SoldID)), new(big.Int).SetUint64(uint64(ev.BoughtID))}
	case pool.AddLiquidity:
		indexed = []common.Hash{addressTopic(ev.Provider)}
		args = []interface{}{toBigs(ev.TokenAmounts), toBigs(ev.Fees), toBig(ev.Invariant), toBig(ev.LPTokenSupply)}
	case pool.RemoveLiquidity:
		indexed = []common.Hash{addressTopic(ev.Provider)}
		args = []interface{}{toBigs(ev.TokenAmounts), toBig(ev.LPTokenSupply)}
	case pool.RemoveLiquidityOne:
		indexed = []common.Hash{addressTopic(ev.Provider)}
		args = []interface{}{toBig(ev.LPTokenAmount), toBig(ev.LPTokenSupply), new(big.Int).SetUint64(uint64(ev.BoughtID)), toBig(ev.TokensBought)}
	case pool.RemoveLiquidityImbalance:
		indexed = []common.Hash{addressTopic(ev.Provider)}
		args = []interface{}{toBigs(ev.TokenAmounts), toBigs(ev.Fees), toBig(ev.Invariant), toBig(ev.LPTokenSupply)}
	case pool.NewAdminFee:
		args = []interface{}{toBig(ev.NewAdminFee)}
	case pool.NewSwapFee:
		args = []interface{}{toBig(ev.NewSwapFee)}
	case pool.RampA:
		args = []interface{}{toBig(ev.OldA), toBig(ev.NewA), new(big.Int).SetUint64(ev.InitialTime), new(big.Int).SetUint64(ev.FutureTime)}
	case pool.StopRampA:
		args = []interface{}{toBig(ev.CurrentA), new(big.Int).SetUint64(ev.Time)}
	case pool.Paused:
		args = []interface{}{ev.Account}
	case pool.Unpaused:
		args = []interface{}{ev.Account}
	default:
		return model.LogRecord{}, fmt.Errorf("unsupported event type %T", env.Event)
	}

	data, err := event.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}

	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, event.ID.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		ChainID:    e.chainID,
		Pool:       env.Pool,
		Address:    e.address.Hex(),
		Seq:        env.Seq,
		Topics:     topics,
		Data:       hexutil.Encode(data),
		Timestamp:  env.Timestamp,
		IngestedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func toBigs(v [2]*uint256.Int) []*big.Int {
	return []*big.Int{toBig(v[0]), toBig(v[1])}
}
