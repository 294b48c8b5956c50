package pool

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"stableScope/internal/lptoken"
	"stableScope/internal/oracle"
)

const (
	start = uint64(1_700_000_000)
	far   = uint64(math.MaxUint64)
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	user1 = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	user2 = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func dec(s string) *uint256.Int { return uint256.MustFromDecimal(s) }

func e18(n uint64) *uint256.Int { return new(uint256.Int).Mul(u(n), u(1e18)) }

func pair(a, b *uint256.Int) [2]*uint256.Int { return [2]*uint256.Int{a, b} }

func zeros() [2]*uint256.Int { return pair(u(0), u(0)) }

type fixture struct {
	pool   *Pool
	ledger *lptoken.Ledger
	feed   *oracle.Feed
	clock  *ManualClock
	events []Envelope
}

func newEmptyFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f, err := buildFixture(cfg)
	require.NoError(t, err)
	return f
}

func buildFixture(cfg Config) (*fixture, error) {
	f := &fixture{
		ledger: lptoken.NewLedger("Geode gAVAX LP", "gAVAX-LP", common.HexToAddress("0x00000000000000000000000000000000000000c1")),
		feed:   oracle.Parity(),
		clock:  NewManualClock(start),
	}
	p, err := New(cfg, Deps{
		Ledger: f.ledger,
		Price:  f.feed,
		Clock:  f.clock,
		Sinks:  []Sink{SinkFunc(func(e Envelope) { f.events = append(f.events, e) })},
	})
	if err != nil {
		return nil, err
	}
	f.pool = p
	return f, nil
}

func defaultConfig() Config {
	return Config{
		Name:     "gAVAX",
		Symbol:   "gAVAX-LP",
		Owner:    owner,
		A:        60,
		SwapFee:  4_000_000,
		AdminFee: 0,
	}
}

// newFixture returns a pool bootstrapped by the owner with 1e18 of each token.
func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	cfg := defaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	f := newEmptyFixture(t, cfg)
	_, err := f.pool.AddLiquidity(owner, pair(e18(1), e18(1)), u(0), far)
	require.NoError(t, err)
	return f
}

func (f *fixture) requireVirtualPrice(t *testing.T, want string) {
	t.Helper()
	vp, err := f.pool.VirtualPrice()
	require.NoError(t, err)
	require.Equal(t, want, vp.Dec())
}

func (f *fixture) swap(t *testing.T, from, to int, dx *uint256.Int) *uint256.Int {
	t.Helper()
	dy, err := f.pool.Swap(user1, from, to, dx, u(0), far)
	require.NoError(t, err)
	return dy
}

func TestNewValidatesParameters(t *testing.T) {
	ledger := lptoken.NewLedger("lp", "LP", common.Address{})
	deps := Deps{Ledger: ledger, Price: oracle.Parity()}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"a at max", func(c *Config) { c.A = 1_000_000 }, ErrAExceedsMax},
		{"swap fee at max", func(c *Config) { c.SwapFee = MaxSwapFee }, ErrSwapFeeExceedsMax},
		{"admin fee at max", func(c *Config) { c.AdminFee = MaxAdminFee }, ErrAdminFeeExceedsMax},
		{"zero owner", func(c *Config) { c.Owner = common.Address{} }, ErrZeroOwner},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			_, err := New(cfg, deps)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, ErrPrecondition)
		})
	}

	_, err := New(defaultConfig(), Deps{Ledger: ledger})
	require.ErrorIs(t, err, ErrMissingDependency)

	cfg := defaultConfig()
	cfg.A = 999_999
	cfg.SwapFee = MaxSwapFee - 1
	cfg.AdminFee = MaxAdminFee - 1
	_, err = New(cfg, deps)
	require.NoError(t, err)
}

func TestBootstrapDeposit(t *testing.T) {
	f := newEmptyFixture(t, defaultConfig())

	vp, err := f.pool.VirtualPrice()
	require.NoError(t, err)
	require.True(t, vp.IsZero())

	_, err = f.pool.AddLiquidity(owner, pair(e18(1), u(0)), u(0), far)
	require.ErrorIs(t, err, ErrMustSupplyAll)

	minted, err := f.pool.AddLiquidity(owner, pair(e18(1), e18(1)), u(0), far)
	require.NoError(t, err)
	require.Equal(t, e18(2), minted)
	require.Equal(t, e18(2), f.ledger.BalanceOf(owner))
	f.requireVirtualPrice(t, "1000000000000000000")
	require.Equal(t, uint64(60), f.pool.A().Uint64())
	require.Equal(t, uint64(6000), f.pool.APrecise().Uint64())
}

func TestSwapPinnedValues(t *testing.T) {
	f := newFixture(t)

	quote, err := f.pool.CalculateSwap(0, 1, u(1e17))
	require.NoError(t, err)
	require.Equal(t, "99794806641066759", quote.Dec())

	dy := f.swap(t, 0, 1, u(1e17))
	require.Equal(t, quote, dy)
	f.requireVirtualPrice(t, "1000020001975421763")

	bal0, err := f.pool.TokenBalance(0)
	require.NoError(t, err)
	require.Equal(t, "1100000000000000000", bal0.Dec())
	bal1, err := f.pool.TokenBalance(1)
	require.NoError(t, err)
	require.Equal(t, new(uint256.Int).Sub(e18(1), dy), bal1)

	f.swap(t, 1, 0, u(1e17))
	f.requireVirtualPrice(t, "1000040035070723434")
}

func TestSwapRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.pool.Swap(user1, 0, 1, u(1e17), e18(1), far)
	require.ErrorIs(t, err, ErrSwapBelowMin)
	require.ErrorIs(t, err, ErrSlippage)

	_, err = f.pool.Swap(user1, 0, 0, u(1e17), u(0), far)
	require.ErrorIs(t, err, ErrSameToken)

	_, err = f.pool.CalculateSwap(0, 9, u(1e17))
	require.ErrorIs(t, err, ErrTokenIndex)

	_, err = f.pool.Swap(user1, 0, 1, u(1e17), u(0), start-1)
	require.ErrorIs(t, err, ErrDeadline)

	// nothing moved
	require.Equal(t, pair(e18(1), e18(1)), f.pool.Balances())
	f.requireVirtualPrice(t, "1000000000000000000")
}

func TestAdminFeeAccrual(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.pool.SetAdminFee(owner, 100_000_000))

	f.swap(t, 0, 1, u(1e17))
	a0, err := f.pool.AdminBalance(0)
	require.NoError(t, err)
	a1, err := f.pool.AdminBalance(1)
	require.NoError(t, err)
	require.Equal(t, "0", a0.Dec())
	require.Equal(t, "399338962149", a1.Dec())

	f.swap(t, 1, 0, u(1e17))
	a0, err = f.pool.AdminBalance(0)
	require.NoError(t, err)
	require.Equal(t, "400660758190", a0.Dec())

	_, err = f.pool.WithdrawAdminFees(user1)
	require.ErrorIs(t, err, ErrUnauthorized)

	out, err := f.pool.WithdrawAdminFees(owner)
	require.NoError(t, err)
	require.Equal(t, "400660758190", out[0].Dec())
	require.Equal(t, "399338962149", out[1].Dec())

	a0, err = f.pool.AdminBalance(0)
	require.NoError(t, err)
	require.True(t, a0.IsZero())

	_, err = f.pool.AdminBalance(2)
	require.ErrorIs(t, err, ErrTokenIndex)
}

func TestAddLiquidityPinnedValues(t *testing.T) {
	f := newFixture(t)

	expected, err := f.pool.CalculateTokenAmount(pair(e18(1), e18(2)), true)
	require.NoError(t, err)
	require.Equal(t, "2998294082685996673", expected.Dec())

	_, err = f.pool.AddLiquidity(user1, pair(e18(1), e18(3)), dec("3993470625071427532"), far)
	require.ErrorIs(t, err, ErrCouldNotMintMin)
	require.True(t, f.ledger.BalanceOf(user1).IsZero())
	require.Equal(t, pair(e18(1), e18(1)), f.pool.Balances())

	minted, err := f.pool.AddLiquidity(user1, pair(e18(1), e18(3)), dec("3993470625071427531"), far)
	require.NoError(t, err)
	require.Equal(t, "3993470625071427531", minted.Dec())
	require.Equal(t, minted, f.ledger.BalanceOf(user1))
}

func TestImbalancedDepositAndWithdrawals(t *testing.T) {
	f := newFixture(t)

	minted, err := f.pool.AddLiquidity(user1, pair(e18(2), u(1e16)), u(0), far)
	require.NoError(t, err)
	require.Equal(t, "1998945389270551378", minted.Dec())

	out, err := f.pool.CalculateRemoveLiquidity(minted)
	require.NoError(t, err)
	require.Equal(t, "1499604416679853312", out[0].Dec())
	require.Equal(t, "504866820282217281", out[1].Dec())

	one, err := f.pool.CalculateRemoveLiquidityOneToken(minted, 0)
	require.NoError(t, err)
	require.Equal(t, "2009595512856245490", one.Dec())

	_, err = f.pool.CalculateRemoveLiquidityOneToken(new(uint256.Int).Mul(f.ledger.TotalSupply(), u(2)), 0)
	require.ErrorIs(t, err, ErrWithdrawExceeds)
	_, err = f.pool.CalculateRemoveLiquidityOneToken(u(1), 5)
	require.ErrorIs(t, err, ErrTokenIndex)

	_, err = f.pool.RemoveLiquidityImbalance(user1, pair(e18(1), u(1e16)), dec("1002407694457888551"), far)
	require.ErrorIs(t, err, ErrAboveMaxBurn)

	burned, err := f.pool.RemoveLiquidityImbalance(user1, pair(e18(1), u(1e16)), minted, far)
	require.NoError(t, err)
	require.Equal(t, "1002407694457888552", burned.Dec())
	require.Equal(t, new(uint256.Int).Sub(minted, burned), f.ledger.BalanceOf(user1))
}

func TestRemoveLiquidityImbalanceKeepsVirtualPriceRising(t *testing.T) {
	f := newFixture(t)
	_, err := f.pool.AddLiquidity(user1, pair(e18(1), e18(1)), u(0), far)
	require.NoError(t, err)
	_, err = f.pool.AddLiquidity(user2, pair(e18(1), e18(1)), u(0), far)
	require.NoError(t, err)

	_, err = f.pool.RemoveLiquidityImbalance(user1, pair(e18(1), u(0)), f.ledger.BalanceOf(user1), far)
	require.NoError(t, err)
	f.requireVirtualPrice(t, "1000040029773424026")

	_, err = f.pool.RemoveLiquidityImbalance(user2, pair(u(0), e18(1)), f.ledger.BalanceOf(user2), far)
	require.NoError(t, err)
	f.requireVirtualPrice(t, "1000080046628378343")
}

func TestRemoveLiquidityImbalanceRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.pool.RemoveLiquidityImbalance(user1, pair(u(1e17), u(0)), u(1), far)
	require.ErrorIs(t, err, ErrExceedsLPBalance)

	_, err = f.pool.RemoveLiquidityImbalance(owner, pair(u(1e17), u(0)), u(0), far)
	require.ErrorIs(t, err, ErrExceedsLPBalance)

	_, err = f.pool.RemoveLiquidityImbalance(owner, pair(e18(2), u(0)), e18(2), far)
	require.ErrorIs(t, err, ErrExceedsAvailable)

	_, err = f.pool.CalculateTokenAmount(pair(e18(2), u(0)), false)
	require.ErrorIs(t, err, ErrExceedsAvailable)

	withdraw, err := f.pool.CalculateTokenAmount(pair(u(1e17), u(2e17)), false)
	require.NoError(t, err)
	require.Equal(t, "300048379327632373", withdraw.Dec())
}

func TestRemoveLiquidity(t *testing.T) {
	f := newFixture(t)
	f.swap(t, 0, 1, u(1e17))

	_, err := f.pool.RemoveLiquidity(user1, u(1), zeros(), far)
	require.ErrorIs(t, err, ErrExceedsLPBalance)

	_, err = f.pool.RemoveLiquidity(owner, e18(2), pair(e18(2), u(0)), far)
	require.ErrorIs(t, err, ErrBelowMinAmounts)

	_, err = f.pool.RemoveLiquidity(owner, e18(2), zeros(), start-1)
	require.ErrorIs(t, err, ErrDeadline)

	// allowed while paused
	require.NoError(t, f.pool.Pause(owner))

	out, err := f.pool.RemoveLiquidity(owner, e18(2), zeros(), far)
	require.NoError(t, err)
	require.Equal(t, "1100000000000000000", out[0].Dec())
	require.Equal(t, "900205193358933241", out[1].Dec())
	require.Equal(t, zeros(), f.pool.Balances())
	require.True(t, f.ledger.TotalSupply().IsZero())

	vp, err := f.pool.VirtualPrice()
	require.NoError(t, err)
	require.True(t, vp.IsZero())
}

func TestRemoveLiquidityOneToken(t *testing.T) {
	f := newFixture(t)

	quote, err := f.pool.CalculateRemoveLiquidityOneToken(u(1e17), 0)
	require.NoError(t, err)
	require.Equal(t, "99936806898022653", quote.Dec())
	quote1, err := f.pool.CalculateRemoveLiquidityOneToken(u(1e17), 1)
	require.NoError(t, err)
	require.Equal(t, quote, quote1)

	_, err = f.pool.RemoveLiquidityOneToken(owner, u(1e17), 9, u(0), far)
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = f.pool.RemoveLiquidityOneToken(user1, u(1e17), 0, u(0), far)
	require.ErrorIs(t, err, ErrExceedsLPBalance)

	_, err = f.pool.RemoveLiquidityOneToken(owner, u(1e17), 0, new(uint256.Int).AddUint64(quote, 1), far)
	require.ErrorIs(t, err, ErrBelowMinDy)

	dy, err := f.pool.RemoveLiquidityOneToken(owner, u(1e17), 0, quote, far)
	require.NoError(t, err)
	require.Equal(t, quote, dy)

	bal0, err := f.pool.TokenBalance(0)
	require.NoError(t, err)
	require.Equal(t, new(uint256.Int).Sub(e18(1), dy), bal0)
	require.Equal(t, "1900000000000000000", f.ledger.TotalSupply().Dec())
}

func TestRemoveLiquidityOneTokenWithoutFee(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.SwapFee = 0 })

	dy, err := f.pool.CalculateRemoveLiquidityOneToken(e18(1), 0)
	require.NoError(t, err)
	require.Equal(t, "958333333333333333", dy.Dec())
}

func TestPausedPoolRejectsTrading(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.pool.Pause(user1), ErrUnauthorized)
	require.ErrorIs(t, f.pool.Unpause(owner), ErrNotPaused)
	require.NoError(t, f.pool.Pause(owner))
	require.ErrorIs(t, f.pool.Pause(owner), ErrPaused)
	require.True(t, f.pool.Paused())

	_, err := f.pool.AddLiquidity(user1, pair(e18(1), e18(1)), u(0), far)
	require.ErrorIs(t, err, ErrPaused)
	_, err = f.pool.Swap(user1, 0, 1, u(1e16), u(0), far)
	require.ErrorIs(t, err, ErrPaused)
	_, err = f.pool.Swap(user1, 1, 0, u(1e16), u(0), far)
	require.ErrorIs(t, err, ErrPaused)
	_, err = f.pool.RemoveLiquidityImbalance(owner, pair(u(1e16), u(0)), e18(1), far)
	require.ErrorIs(t, err, ErrPaused)
	_, err = f.pool.RemoveLiquidityOneToken(owner, u(1e16), 0, u(0), far)
	require.ErrorIs(t, err, ErrPaused)

	require.NoError(t, f.pool.Unpause(owner))
	f.swap(t, 0, 1, u(1e16))
}

func TestFeeSetters(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.pool.SetSwapFee(user1, 1), ErrUnauthorized)
	require.ErrorIs(t, f.pool.SetSwapFee(owner, MaxSwapFee+1), ErrFeeTooHigh)
	require.NoError(t, f.pool.SetSwapFee(owner, MaxSwapFee))
	require.Equal(t, uint64(MaxSwapFee), f.pool.SwapFee().Uint64())

	require.ErrorIs(t, f.pool.SetAdminFee(owner, MaxAdminFee+1), ErrFeeTooHigh)
	require.NoError(t, f.pool.SetAdminFee(owner, MaxAdminFee))
	require.Equal(t, uint64(MaxAdminFee), f.pool.AdminFee().Uint64())
}

func TestRequireAllTokens(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.RequireAllTokens = true })

	_, err := f.pool.AddLiquidity(user1, pair(e18(1), u(0)), u(0), far)
	require.ErrorIs(t, err, ErrMustSupplyAll)

	g := newFixture(t)
	_, err = g.pool.AddLiquidity(user1, pair(e18(1), u(0)), u(0), far)
	require.NoError(t, err)
	g.requireVirtualPrice(t, "1000066822646615457")
}

func TestRampAffectsVirtualPrice(t *testing.T) {
	end := start + 14*24*3600 + 1
	cases := []struct {
		name     string
		futureA  uint64
		at900    uint64
		vp900    string
		at100000 uint64
		atEnd    uint64
	}{
		{"up", 100, 6002, "1000067156804881210", 6330, 10000},
		{"down", 30, 5998, "1000066488269811101", 5752, 3000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.pool.AddLiquidity(user1, pair(e18(1), u(0)), u(0), far)
			require.NoError(t, err)
			f.requireVirtualPrice(t, "1000066822646615457")

			require.ErrorIs(t, f.pool.RampA(user1, tc.futureA, end), ErrUnauthorized)
			require.NoError(t, f.pool.RampA(owner, tc.futureA, end))
			require.Equal(t, uint64(6000), f.pool.APrecise().Uint64())

			f.clock.Set(start + 900)
			require.Equal(t, tc.at900, f.pool.APrecise().Uint64())
			f.requireVirtualPrice(t, tc.vp900)

			f.clock.Set(start + 100000)
			require.Equal(t, tc.at100000, f.pool.APrecise().Uint64())

			f.clock.Set(end)
			require.Equal(t, tc.atEnd, f.pool.APrecise().Uint64())
		})
	}
}

func TestRampRejectionsAreClassified(t *testing.T) {
	f := newFixture(t)
	end := start + 14*24*3600 + 1

	err := f.pool.RampA(owner, 121, end)
	require.ErrorIs(t, err, ErrPrecondition)
	require.Contains(t, err.Error(), "futureA is too large")

	require.NoError(t, f.pool.RampA(owner, 55, end))
	err = f.pool.RampA(owner, 55, end)
	require.ErrorIs(t, err, ErrPrecondition)
	require.Contains(t, err.Error(), "wait 1 day before starting ramp")

	f.clock.Set(start + 100)
	require.NoError(t, f.pool.StopRampA(owner))
	require.ErrorIs(t, f.pool.StopRampA(owner), ErrPrecondition)
	require.ErrorIs(t, f.pool.StopRampA(user1), ErrUnauthorized)
}

func TestRampAttacks(t *testing.T) {
	end := start + 14*24*3600 + 1
	cases := []struct {
		name       string
		futureA    uint64
		imbalanced bool
		at         uint64
		want       string
	}{
		{"up balanced early", 100, false, start + 900, "998870798583751806"},
		{"up balanced end", 100, false, end, "968337196748323044"},
		{"up imbalanced early", 100, true, start + 900, "999206718887357235"},
		{"up imbalanced end", 100, true, end, "1003422853322301133"},
		{"down balanced early", 30, false, start + 900, "998919266990600563"},
		{"down balanced end", 30, false, end, "1064051336419513038"},
		{"down imbalanced early", 30, true, start + 900, "999199804200707142"},
		{"down imbalanced end", 30, true, end, "989243284728428679"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.imbalanced {
				_, err := f.pool.AddLiquidity(owner, pair(u(0), e18(2)), u(0), far)
				require.NoError(t, err)
			}
			require.NoError(t, f.pool.RampA(owner, tc.futureA, end))

			bought := f.swap(t, 0, 1, e18(1))
			if !tc.imbalanced {
				require.Equal(t, "916300000000000000", bought.Dec())
			} else {
				require.Equal(t, "1010436485243816357", bought.Dec())
			}

			f.clock.Set(tc.at)
			back := f.swap(t, 1, 0, bought)
			require.Equal(t, tc.want, back.Dec())
		})
	}
}

func TestDebt(t *testing.T) {
	cases := []struct {
		fee   uint64
		price string
		debt  string
		dy    string
		limit uint64
	}{
		{0, "1000000000000000000", "499147041342998336", "500852958657001662", 10},
		{0, "1200000000000000000", "797964337058657421", "668363052451118814", 10},
		{0, "2000000000000000000", "1989158936944686622", "1005420531527656688", 10},
		{4_000_000, "1000000000000000000", "499247211934729736", "500752747931239795", 1e15},
		{4_000_000, "1200000000000000000", "798124744191245689", "668229326246004552", 1e15},
		{4_000_000, "2000000000000000000", "1989561105157297684", "1005219366655508469", 1e15},
	}
	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			f := newFixture(t, func(c *Config) { c.SwapFee = tc.fee })
			_, err := f.pool.AddLiquidity(user1, pair(e18(1), e18(2)), u(0), far)
			require.NoError(t, err)

			price := dec(tc.price)
			require.NoError(t, f.feed.Set(price))

			debt, err := f.pool.Debt()
			require.NoError(t, err)
			require.Equal(t, tc.debt, debt.Dec())

			pure, err := f.pool.DebtAt(price)
			require.NoError(t, err)
			require.Equal(t, debt, pure)

			dy := f.swap(t, 0, 1, debt)
			require.Equal(t, tc.dy, dy.Dec())

			residual, err := f.pool.Debt()
			require.NoError(t, err)
			require.True(t, residual.LtUint64(tc.limit), "residual debt %s", residual.Dec())
		})
	}
}

func TestDebtIsZeroWhenToken0Heavy(t *testing.T) {
	f := newFixture(t)
	_, err := f.pool.AddLiquidity(user1, pair(e18(2), u(0)), u(0), far)
	require.NoError(t, err)

	debt, err := f.pool.Debt()
	require.NoError(t, err)
	require.True(t, debt.IsZero())

	_, err = f.pool.DebtAt(u(0))
	require.ErrorIs(t, err, ErrPrecondition)
}

func TestEventsFollowCommits(t *testing.T) {
	f := newFixture(t)
	f.swap(t, 0, 1, u(1e17))
	_, err := f.pool.Swap(user1, 0, 1, u(1e17), e18(1), far)
	require.Error(t, err)
	require.NoError(t, f.pool.SetSwapFee(owner, 1))

	require.Len(t, f.events, 3)
	names := make([]string, 0, len(f.events))
	for i, e := range f.events {
		require.Equal(t, uint64(i+1), e.Seq)
		require.Equal(t, "gAVAX", e.Pool)
		names = append(names, e.Event.EventName())
	}
	require.Equal(t, []string{EventAddLiquidity, EventTokenSwap, EventNewSwapFee}, names)

	swap, ok := f.events[1].Event.(TokenSwap)
	require.True(t, ok)
	require.Equal(t, user1, swap.Buyer)
	require.Equal(t, "99794806641066759", swap.TokensBought.Dec())

	add, ok := f.events[0].Event.(AddLiquidity)
	require.True(t, ok)
	require.Equal(t, e18(2), add.LPTokenSupply)
	require.Equal(t, e18(2), add.Invariant)
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.AdminFee = 5_000_000_000 })
	_, err := f.pool.AddLiquidity(user1, pair(e18(2), u(1e16)), u(0), far)
	require.NoError(t, err)
	f.swap(t, 0, 1, u(1e17))
	require.NoError(t, f.pool.RampA(owner, 100, start+15*24*3600))
	f.clock.Set(start + 3600)

	snap := f.pool.Snapshot()
	require.Equal(t, uint64(4), snap.Seq)
	require.Len(t, snap.LPHolders, 2)
	require.NotNil(t, snap.VirtualPrice)

	ledger := lptoken.NewLedger("lp", "LP", common.Address{})
	restored, err := Restore(snap, Deps{Ledger: ledger, Price: f.feed, Clock: f.clock})
	require.NoError(t, err)

	require.Equal(t, f.pool.Balances(), restored.Balances())
	require.Equal(t, f.pool.APrecise(), restored.APrecise())
	require.Equal(t, f.ledger.TotalSupply(), ledger.TotalSupply())

	want, err := f.pool.CalculateSwap(1, 0, u(1e17))
	require.NoError(t, err)
	got, err := restored.CalculateSwap(1, 0, u(1e17))
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = Restore(snap, Deps{Ledger: &supplyOnly{supply: u(1)}, Price: f.feed})
	require.ErrorIs(t, err, ErrPrecondition)
}

type supplyOnly struct{ supply *uint256.Int }

func (s *supplyOnly) TotalSupply() *uint256.Int               { return s.supply }
func (s *supplyOnly) BalanceOf(common.Address) *uint256.Int   { return new(uint256.Int) }
func (s *supplyOnly) Mint(common.Address, *uint256.Int) error { return errors.New("read only") }
func (s *supplyOnly) Burn(common.Address, *uint256.Int) error { return errors.New("read only") }

func TestConcurrentSwapsAndViews(t *testing.T) {
	f := newFixture(t)
	_, err := f.pool.AddLiquidity(user1, pair(e18(100), e18(100)), u(0), far)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := f.pool.Swap(user2, i%2, 1-i%2, u(1e16), u(0), far); err != nil {
					t.Error(err)
					return
				}
				if _, err := f.pool.VirtualPrice(); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	require.Len(t, f.events, 2+8*20)
}

func TestManualClockAdvance(t *testing.T) {
	c := NewManualClock(start)
	require.Equal(t, start+90, c.Advance(90*time.Second))
	require.Equal(t, start+90, c.Now())
}
