package events

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"stableScope/internal/model"
)

// Decoder decodes pool event log records.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	event := d.poolABI.Events[name]

	indexed, err := parseIndexed(event, log.Topics)
	if err != nil {
		return nil, err
	}
	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return nil, err
	}

	decoded, err := decodeValues(name, indexed, values)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		ChainID:   log.ChainID,
		Pool:      log.Pool,
		Address:   log.Address,
		Seq:       log.Seq,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func decodeValues(name string, indexed map[string]interface{}, values []interface{}) (interface{}, error) {
	r := reader{values: values}
	switch name {
	case "TokenSwap":
		out := model.TokenSwapEventData{
			Buyer:        r.indexedAddress(indexed, "buyer"),
			TokensSold:   r.bigString(),
			TokensBought: r.bigString(),
			SoldID:       r.smallID(),
			BoughtID:     r.smallID(),
		}
		return out, r.done()
	case "AddLiquidity", "RemoveLiquidityImbalance":
		out := model.LiquidityEventData{
			Provider:      r.indexedAddress(indexed, "provider"),
			TokenAmounts:  r.pair(),
			Fees:          r.pair(),
			Invariant:     r.bigString(),
			LPTokenSupply: r.bigString(),
		}
		return out, r.done()
	case "RemoveLiquidity":
		out := model.LiquidityEventData{
			Provider:      r.indexedAddress(indexed, "provider"),
			TokenAmounts:  r.pair(),
			LPTokenSupply: r.bigString(),
		}
		return out, r.done()
	case "RemoveLiquidityOne":
		out := model.RemoveLiquidityOneEventData{
			Provider:      r.indexedAddress(indexed, "provider"),
			LPTokenAmount: r.bigString(),
			LPTokenSupply: r.bigString(),
			BoughtID:      r.smallID(),
			TokensBought:  r.bigString(),
		}
		return out, r.done()
	case "NewAdminFee", "NewSwapFee":
		out := model.FeeEventData{Fee: r.bigString()}
		return out, r.done()
	case "RampA":
		out := model.RampAEventData{
			OldA:        r.bigString(),
			NewA:        r.bigString(),
			InitialTime: r.uint64(),
			FutureTime:  r.uint64(),
		}
		return out, r.done()
	case "StopRampA":
		out := model.StopRampAEventData{CurrentA: r.bigString(), Time: r.uint64()}
		return out, r.done()
	case "Paused", "Unpaused":
		out := model.PauseEventData{Account: r.address()}
		return out, r.done()
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}
}

// reader walks unpacked values in order and keeps the first error.
type reader struct {
	values []interface{}
	pos    int
	err    error
}

func (r *reader) next() interface{} {
	if r.err != nil {
		return nil
	}
	if r.pos >= len(r.values) {
		r.err = fmt.Errorf("expected more than %d values", len(r.values))
		return nil
	}
	v := r.values[r.pos]
	r.pos++
	return v
}

func (r *reader) big() *big.Int {
	v := r.next()
	if r.err != nil {
		return new(big.Int)
	}
	out, err := asBigInt(v)
	if err != nil {
		r.err = err
		return new(big.Int)
	}
	return out
}

func (r *reader) bigString() string { return r.big().String() }

func (r *reader) uint64() uint64 {
	v := r.big()
	if r.err == nil && !v.IsUint64() {
		r.err = fmt.Errorf("value %s overflows uint64", v)
	}
	return v.Uint64()
}

func (r *reader) smallID() uint8 {
	v := r.big()
	if r.err == nil && (!v.IsUint64() || v.Uint64() > 255) {
		r.err = fmt.Errorf("token id %s out of range", v)
	}
	return uint8(v.Uint64())
}

func (r *reader) pair() [2]string {
	v := r.next()
	if r.err != nil {
		return [2]string{}
	}
	list, ok := v.([]*big.Int)
	if !ok {
		r.err = fmt.Errorf("unsupported amounts type %T", v)
		return [2]string{}
	}
	if len(list) != 2 {
		r.err = fmt.Errorf("expected 2 amounts, got %d", len(list))
		return [2]string{}
	}
	return [2]string{list[0].String(), list[1].String()}
}

func (r *reader) address() string {
	v := r.next()
	if r.err != nil {
		return ""
	}
	addr, err := asAddress(v)
	if err != nil {
		r.err = err
		return ""
	}
	return addr.Hex()
}

func (r *reader) indexedAddress(indexed map[string]interface{}, name string) string {
	if r.err != nil {
		return ""
	}
	addr, err := asAddress(indexed[name])
	if err != nil {
		r.err = fmt.Errorf("indexed %s: %w", name, err)
		return ""
	}
	return addr.Hex()
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.values) {
		return fmt.Errorf("unexpected values: %d", len(r.values))
	}
	return nil
}

func parseIndexed(event abi.Event, topics []string) (map[string]interface{}, error) {
	args := indexedArguments(event.Inputs)
	if len(topics) != len(args)+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", len(args)+1, len(topics))
	}
	hashes, err := parseTopicHashes(topics[1:])
	if err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(args))
	if len(args) == 0 {
		return out, nil
	}
	if err := abi.ParseTopicsIntoMap(out, args, hashes); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	return out, nil
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported integer type %T", value)
	}
}
