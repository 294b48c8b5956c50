package sim

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tidwall/gjson"
)

// Op kinds accepted in a script.
const (
	OpAdd               = "add"
	OpRemove            = "remove"
	OpRemoveImbalance   = "removeImbalance"
	OpRemoveOne         = "removeOne"
	OpSwap              = "swap"
	OpRamp              = "ramp"
	OpStopRamp          = "stopRamp"
	OpSetSwapFee        = "setSwapFee"
	OpSetAdminFee       = "setAdminFee"
	OpWithdrawAdminFees = "withdrawAdminFees"
	OpPause             = "pause"
	OpUnpause           = "unpause"
	OpAdvance           = "advance"
	OpPrice             = "price"
)

// Op is one parsed script line. Only the fields its kind uses are set.
//
//	{"op":"swap","caller":"0x..","from":0,"to":1,"amount":"1000000","min":"0"}
//	{"op":"advance","by":"24h"}
type Op struct {
	Line     int
	Kind     string
	Caller   common.Address
	Amounts  [2]*uint256.Int
	Amount   *uint256.Int
	Limit    *uint256.Int
	Limits   [2]*uint256.Int
	From     int
	To       int
	Index    int
	Value    uint64
	By       time.Duration
	Deadline uint64
	// FutureTime is absolute; when zero a ramp ends By after the current
	// time.
	FutureTime uint64
}

// ParseOp parses a single JSON script line. The caller defaults to
// defaultCaller and the deadline to no deadline.
func ParseOp(lineNo int, line []byte, defaultCaller common.Address) (Op, error) {
	if !gjson.ValidBytes(line) {
		return Op{}, fmt.Errorf("line %d: invalid json", lineNo)
	}
	doc := gjson.ParseBytes(line)
	op := Op{
		Line:     lineNo,
		Kind:     doc.Get("op").String(),
		Caller:   defaultCaller,
		Deadline: math.MaxUint64,
	}
	if op.Kind == "" {
		return Op{}, fmt.Errorf("line %d: missing op", lineNo)
	}

	p := parser{doc: doc}
	if caller := doc.Get("caller"); caller.Exists() {
		if !common.IsHexAddress(caller.String()) {
			return Op{}, fmt.Errorf("line %d: invalid caller %q", lineNo, caller.String())
		}
		op.Caller = common.HexToAddress(caller.String())
	}
	if doc.Get("deadline").Exists() {
		op.Deadline = p.uint("deadline")
	}

	switch op.Kind {
	case OpAdd:
		op.Amounts = p.pair("amounts")
		op.Limit = p.amountOr("min", 0)
	case OpRemove:
		op.Amount = p.amount("amount")
		op.Limits = p.pairOr("min", 0)
	case OpRemoveImbalance:
		op.Amounts = p.pair("amounts")
		op.Limit = p.amount("max_burn")
	case OpRemoveOne:
		op.Amount = p.amount("amount")
		op.Index = p.index("index")
		op.Limit = p.amountOr("min", 0)
	case OpSwap:
		op.From = p.index("from")
		op.To = p.index("to")
		op.Amount = p.amount("amount")
		op.Limit = p.amountOr("min", 0)
	case OpRamp:
		op.Value = p.uint("future_a")
		if doc.Get("future_time").Exists() {
			op.FutureTime = p.uint("future_time")
		} else {
			op.By = p.duration("in")
		}
	case OpSetSwapFee, OpSetAdminFee:
		op.Value = p.uint("fee")
	case OpAdvance:
		op.By = p.duration("by")
	case OpPrice:
		op.Amount = p.amount("value")
	case OpStopRamp, OpWithdrawAdminFees, OpPause, OpUnpause:
	default:
		return Op{}, fmt.Errorf("line %d: unknown op %q", lineNo, op.Kind)
	}
	if p.err != nil {
		return Op{}, fmt.Errorf("line %d: %s: %w", lineNo, op.Kind, p.err)
	}
	return op, nil
}

// parser reads typed fields from a gjson document and keeps the first error.
type parser struct {
	doc gjson.Result
	err error
}

func (p *parser) fail(format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
}

func (p *parser) required(key string) (gjson.Result, bool) {
	v := p.doc.Get(key)
	if !v.Exists() {
		p.fail("missing %s", key)
		return v, false
	}
	return v, true
}

// toAmount accepts decimal strings, 0x hex strings and JSON integers.
func (p *parser) toAmount(key string, v gjson.Result) *uint256.Int {
	var text string
	switch v.Type {
	case gjson.String:
		text = strings.TrimSpace(v.String())
	case gjson.Number:
		text = v.Raw
	default:
		p.fail("%s: expected amount, got %s", key, v.Type)
		return new(uint256.Int)
	}
	out := new(uint256.Int)
	if err := out.UnmarshalText([]byte(text)); err != nil {
		p.fail("%s: invalid amount %q: %v", key, text, err)
		return new(uint256.Int)
	}
	return out
}

func (p *parser) amount(key string) *uint256.Int {
	v, ok := p.required(key)
	if !ok {
		return new(uint256.Int)
	}
	return p.toAmount(key, v)
}

func (p *parser) amountOr(key string, fallback uint64) *uint256.Int {
	v := p.doc.Get(key)
	if !v.Exists() {
		return uint256.NewInt(fallback)
	}
	return p.toAmount(key, v)
}

func (p *parser) pair(key string) [2]*uint256.Int {
	v, ok := p.required(key)
	if !ok {
		return [2]*uint256.Int{new(uint256.Int), new(uint256.Int)}
	}
	return p.toPair(key, v)
}

func (p *parser) pairOr(key string, fallback uint64) [2]*uint256.Int {
	v := p.doc.Get(key)
	if !v.Exists() {
		return [2]*uint256.Int{uint256.NewInt(fallback), uint256.NewInt(fallback)}
	}
	return p.toPair(key, v)
}

func (p *parser) toPair(key string, v gjson.Result) [2]*uint256.Int {
	out := [2]*uint256.Int{new(uint256.Int), new(uint256.Int)}
	items := v.Array()
	if !v.IsArray() || len(items) != 2 {
		p.fail("%s: expected 2 amounts", key)
		return out
	}
	for i, item := range items {
		out[i] = p.toAmount(fmt.Sprintf("%s[%d]", key, i), item)
	}
	return out
}

func (p *parser) uint(key string) uint64 {
	v, ok := p.required(key)
	if !ok {
		return 0
	}
	if v.Type == gjson.String {
		return p.toAmountUint(key, v)
	}
	if v.Type != gjson.Number || strings.ContainsAny(v.Raw, ".eE-") {
		p.fail("%s: expected unsigned integer", key)
		return 0
	}
	return v.Uint()
}

func (p *parser) toAmountUint(key string, v gjson.Result) uint64 {
	amount := p.toAmount(key, v)
	if !amount.IsUint64() {
		p.fail("%s: %s overflows uint64", key, amount.Dec())
		return 0
	}
	return amount.Uint64()
}

func (p *parser) index(key string) int {
	v := p.uint(key)
	if p.err == nil && v > 1 {
		p.fail("%s: token index %d out of range", key, v)
	}
	return int(v)
}

// duration accepts Go duration strings ("36h") or whole seconds.
func (p *parser) duration(key string) time.Duration {
	v, ok := p.required(key)
	if !ok {
		return 0
	}
	if v.Type == gjson.String {
		d, err := time.ParseDuration(v.String())
		if err != nil {
			p.fail("%s: %v", key, err)
			return 0
		}
		if d < 0 {
			p.fail("%s: negative duration", key)
		}
		return d
	}
	return time.Duration(p.uint(key)) * time.Second
}
