package pool

import (
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"
)

func rapidFixture(t *rapid.T) *fixture {
	f, err := buildFixture(defaultConfig())
	if err != nil {
		t.Fatalf("build pool: %v", err)
	}
	if _, err := f.pool.AddLiquidity(owner, pair(e18(1), e18(1)), u(0), far); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return f
}

func TestBalancedRoundTripNeverProfits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapidFixture(t)
		x := new(uint256.Int).Mul(
			u(rapid.Uint64Range(1, 1_000_000_000).Draw(t, "x")),
			u(1_000_000_000_000),
		)

		minted, err := f.pool.AddLiquidity(user1, pair(x, x), u(0), far)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		out, err := f.pool.RemoveLiquidity(user1, minted, zeros(), far)
		if err != nil {
			t.Fatalf("remove: %v", err)
		}
		for i, amount := range out {
			if amount.Gt(x) {
				t.Fatalf("token %d: withdrew %s after depositing %s", i, amount.Dec(), x.Dec())
			}
		}
	})
}

func TestVirtualPriceNeverDecreasesAcrossSwaps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapidFixture(t)
		if _, err := f.pool.AddLiquidity(user1, pair(e18(100), e18(100)), u(0), far); err != nil {
			t.Fatalf("add: %v", err)
		}
		prev, err := f.pool.VirtualPrice()
		if err != nil {
			t.Fatalf("virtual price: %v", err)
		}

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			from := 0
			if rapid.Bool().Draw(t, "direction") {
				from = 1
			}
			dx := new(uint256.Int).Mul(u(rapid.Uint64Range(1, 200_000).Draw(t, "dx")), u(100_000_000_000_000))
			if _, err := f.pool.Swap(user1, from, 1-from, dx, u(0), far); err != nil {
				t.Fatalf("swap %d: %v", i, err)
			}
			vp, err := f.pool.VirtualPrice()
			if err != nil {
				t.Fatalf("virtual price: %v", err)
			}
			if vp.Lt(prev) {
				t.Fatalf("virtual price fell from %s to %s", prev.Dec(), vp.Dec())
			}
			prev = vp
		}
	})
}
