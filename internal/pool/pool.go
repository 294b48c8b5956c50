// Package pool implements a two-asset StableSwap pool whose second token is a
// receipt token valued by an external pricePerShare oracle.
//
// All mutating operations run under one write lock, compute on local copies
// and commit only after every check has passed. Events are published to the
// registered sinks after commit.
package pool

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"stableScope/internal/amplification"
	"stableScope/internal/curve"
	"stableScope/internal/model"
)

const (
	MaxSwapFee  = 100_000_000
	MaxAdminFee = 10_000_000_000
)

var (
	feeDenominator = uint256.NewInt(curve.FeeDenominator)
	priceScale     = uint256.NewInt(1_000_000_000_000_000_000)
)

// LPToken is the share ledger the pool mints to and burns from.
type LPToken interface {
	TotalSupply() *uint256.Int
	BalanceOf(account common.Address) *uint256.Int
	Mint(to common.Address, amount *uint256.Int) error
	Burn(from common.Address, amount *uint256.Int) error
}

// PriceSource returns the token1 price scaled by 1e18.
type PriceSource interface {
	PricePerShare() (*uint256.Int, error)
}

// Config holds the pool parameters fixed at initialization. A is not
// precise.
type Config struct {
	Name     string
	Symbol   string
	Address  common.Address
	Owner    common.Address
	TokenID  uint64
	A        uint64
	SwapFee  uint64
	AdminFee uint64

	// RequireAllTokens rejects deposits that skip a token the pool
	// already holds.
	RequireAllTokens bool
}

// Deps are the collaborators of a pool.
type Deps struct {
	Ledger LPToken
	Price  PriceSource
	Clock  Clock
	Logger *zap.Logger
	Sinks  []Sink
}

type Pool struct {
	mu sync.RWMutex

	name       string
	symbol     string
	address    common.Address
	owner      common.Address
	tokenID    uint64
	requireAll bool

	balances      [2]*uint256.Int
	adminBalances [2]*uint256.Int
	swapFee       *uint256.Int
	adminFee      *uint256.Int
	amp           *amplification.Controller
	paused        bool
	seq           uint64

	ledger LPToken
	price  PriceSource
	clock  Clock
	logger *zap.Logger
	sinks  []Sink
}

// New initializes an empty pool.
func New(cfg Config, deps Deps) (*Pool, error) {
	if cfg.A >= amplification.MaxA {
		return nil, ErrAExceedsMax
	}
	if cfg.SwapFee >= MaxSwapFee {
		return nil, ErrSwapFeeExceedsMax
	}
	if cfg.AdminFee >= MaxAdminFee {
		return nil, ErrAdminFeeExceedsMax
	}

	p, err := newPool(cfg, deps)
	if err != nil {
		return nil, err
	}
	aPrecise := new(uint256.Int).Mul(uint256.NewInt(cfg.A), uint256.NewInt(curve.APrecision))
	p.amp = amplification.New(aPrecise)
	p.swapFee = uint256.NewInt(cfg.SwapFee)
	p.adminFee = uint256.NewInt(cfg.AdminFee)
	return p, nil
}

// Restore rebuilds a pool from a snapshot. When the snapshot carries LP
// holders and the ledger can be restored, the ledger is repopulated first;
// either way the ledger supply must match the snapshot.
func Restore(snap model.PoolSnapshot, deps Deps) (*Pool, error) {
	cfg := Config{
		Name:    snap.Pool,
		Symbol:  snap.Symbol,
		Address: snap.Address,
		Owner:   snap.Owner,
		TokenID: snap.TokenID,
	}
	p, err := newPool(cfg, deps)
	if err != nil {
		return nil, err
	}

	if len(snap.LPHolders) > 0 {
		if r, ok := deps.Ledger.(interface {
			Restore(map[common.Address]*uint256.Int) error
		}); ok {
			if err := r.Restore(snap.LPHolders); err != nil {
				return nil, fmt.Errorf("restore ledger: %w", err)
			}
		}
	}
	supply := orZero(snap.LPTotalSupply)
	if !deps.Ledger.TotalSupply().Eq(supply) {
		return nil, precondition(fmt.Sprintf("ledger supply %s does not match snapshot %s", deps.Ledger.TotalSupply().Dec(), supply.Dec()))
	}

	for i := range p.balances {
		p.balances[i] = orZero(snap.Balances[i])
		p.adminBalances[i] = orZero(snap.AdminBalances[i])
	}
	p.swapFee = orZero(snap.SwapFee)
	p.adminFee = orZero(snap.AdminFee)
	p.amp = amplification.Restore(amplification.State{
		InitialA:     snap.InitialA,
		FutureA:      snap.FutureA,
		InitialATime: snap.InitialATime,
		FutureATime:  snap.FutureATime,
	})
	p.paused = snap.Paused
	p.seq = snap.Seq
	return p, nil
}

func newPool(cfg Config, deps Deps) (*Pool, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, ErrZeroOwner
	}
	if deps.Ledger == nil || deps.Price == nil {
		return nil, ErrMissingDependency
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	p := &Pool{
		name:       cfg.Name,
		symbol:     cfg.Symbol,
		address:    cfg.Address,
		owner:      cfg.Owner,
		tokenID:    cfg.TokenID,
		requireAll: cfg.RequireAllTokens,
		ledger:     deps.Ledger,
		price:      deps.Price,
		clock:      deps.Clock,
		logger:     deps.Logger.With(zap.String("pool", cfg.Name)),
		sinks:      append([]Sink(nil), deps.Sinks...),
	}
	for i := range p.balances {
		p.balances[i] = new(uint256.Int)
		p.adminBalances[i] = new(uint256.Int)
	}
	return p, nil
}

// AddSink registers another event sink.
func (p *Pool) AddSink(s Sink) {
	p.mu.Lock()
	p.sinks = append(p.sinks, s)
	p.mu.Unlock()
}

// Snapshot captures the current state.
func (p *Pool) Snapshot() model.PoolSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	amp := p.amp.State()
	snap := model.PoolSnapshot{
		Pool:          p.name,
		Symbol:        p.symbol,
		Address:       p.address,
		Owner:         p.owner,
		TokenID:       p.tokenID,
		Seq:           p.seq,
		Timestamp:     p.clock.Now(),
		Balances:      cloneAmounts(p.balances),
		AdminBalances: cloneAmounts(p.adminBalances),
		SwapFee:       p.swapFee.Clone(),
		AdminFee:      p.adminFee.Clone(),
		InitialA:      amp.InitialA,
		FutureA:       amp.FutureA,
		InitialATime:  amp.InitialATime,
		FutureATime:   amp.FutureATime,
		Paused:        p.paused,
		LPTotalSupply: p.ledger.TotalSupply(),
	}
	if h, ok := p.ledger.(interface {
		Holders() map[common.Address]*uint256.Int
	}); ok {
		snap.LPHolders = h.Holders()
	}
	if vp, err := p.virtualPrice(snap.Timestamp); err == nil {
		snap.VirtualPrice = vp
	}
	return snap
}

// emit publishes an event to every sink. Callers hold the write lock.
func (p *Pool) emit(now uint64, e Event) {
	p.seq++
	env := Envelope{Pool: p.name, Seq: p.seq, Timestamp: now, Event: e}
	for _, s := range p.sinks {
		s.Publish(env)
	}
}

func (p *Pool) checkDeadline(now, deadline uint64) error {
	if now > deadline {
		return ErrDeadline
	}
	return nil
}

func (p *Pool) checkLive(now, deadline uint64) error {
	if p.paused {
		return ErrPaused
	}
	return p.checkDeadline(now, deadline)
}

func (p *Pool) onlyOwner(caller common.Address) error {
	if caller != p.owner {
		return ErrUnauthorized
	}
	return nil
}

func (p *Pool) currentPrice() (*uint256.Int, error) {
	price, err := p.price.PricePerShare()
	if err != nil {
		return nil, wrap(ErrPrecondition, fmt.Errorf("price: %w", err))
	}
	if price == nil || price.IsZero() {
		return nil, precondition("price is zero")
	}
	return price, nil
}

// xp returns the balances with token1 priced in token0 units.
func xp(c *curve.Calc, balances [2]*uint256.Int, price *uint256.Int) curve.Balances {
	return curve.Balances{
		balances[0].Clone(),
		c.MulDiv(balances[1], price, priceScale),
	}
}

func pricedIn(c *curve.Calc, v *uint256.Int, index int, price *uint256.Int) *uint256.Int {
	if index == 1 {
		return c.MulDiv(v, price, priceScale)
	}
	return v.Clone()
}

func pricedOut(c *curve.Calc, v *uint256.Int, index int, price *uint256.Int) *uint256.Int {
	if index == 1 {
		return c.MulDiv(v, priceScale, price)
	}
	return v.Clone()
}

func computeD(xp curve.Balances, a *uint256.Int) (*uint256.Int, error) {
	d, err := curve.ComputeD(xp, a)
	if err != nil {
		return nil, wrap(ErrNumeric, err)
	}
	return d, nil
}

func cloneAmounts(in [2]*uint256.Int) [2]*uint256.Int {
	return [2]*uint256.Int{in[0].Clone(), in[1].Clone()}
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}

func validAmounts(amounts [2]*uint256.Int) error {
	for _, a := range amounts {
		if a == nil {
			return precondition("amounts must match pooled tokens")
		}
	}
	return nil
}

func checkIndex(index int, notFound error) error {
	if index < 0 || index >= curve.NumTokens {
		return notFound
	}
	return nil
}
