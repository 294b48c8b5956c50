package metrics

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"stableScope/internal/model"
	"stableScope/internal/pool"
)

func e18(v uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), uint256.NewInt(1_000_000_000_000_000_000))
}

func TestCollectorCountsEvents(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.Publish(pool.Envelope{Pool: "gavax", Seq: 1, Event: pool.AddLiquidity{
		Provider:      common.HexToAddress("0x01"),
		TokenAmounts:  [2]*uint256.Int{e18(1), e18(1)},
		Fees:          [2]*uint256.Int{new(uint256.Int), new(uint256.Int)},
		Invariant:     e18(2),
		LPTokenSupply: e18(2),
	}})
	c.Publish(pool.Envelope{Pool: "gavax", Seq: 2, Event: pool.TokenSwap{
		TokensSold:   e18(3),
		TokensBought: e18(2),
		SoldID:       0,
		BoughtID:     1,
	}})
	c.Publish(pool.Envelope{Pool: "gavax", Seq: 3, Event: pool.TokenSwap{
		TokensSold:   e18(1),
		TokensBought: e18(1),
		SoldID:       1,
		BoughtID:     0,
	}})
	c.Publish(pool.Envelope{Pool: "gavax", Seq: 4, Event: pool.Paused{}})

	require.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("gavax", pool.EventTokenSwap)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("gavax", pool.EventAddLiquidity)))
	require.Equal(t, 4.0, testutil.ToFloat64(c.swapVolume.WithLabelValues("gavax", "0")))
	require.Equal(t, 3.0, testutil.ToFloat64(c.swapVolume.WithLabelValues("gavax", "1")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.lpSupply.WithLabelValues("gavax")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.paused.WithLabelValues("gavax")))
}

func TestCollectorObserveSnapshot(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.Observe(model.PoolSnapshot{
		Pool:          "gavax",
		Balances:      [2]*uint256.Int{e18(10), uint256.NewInt(500_000_000_000_000_000)},
		AdminBalances: [2]*uint256.Int{new(uint256.Int), new(uint256.Int)},
		LPTotalSupply: e18(10),
		VirtualPrice:  uint256.NewInt(1_000_100_000_000_000_000),
		FutureA:       uint256.NewInt(6000),
	})

	expected := `
# HELP stableswap_balance_tokens pool reserves, in whole tokens
# TYPE stableswap_balance_tokens gauge
stableswap_balance_tokens{pool="gavax",token="0"} 10
stableswap_balance_tokens{pool="gavax",token="1"} 0.5
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "stableswap_balance_tokens"))
	require.Equal(t, 60.0, testutil.ToFloat64(c.amp.WithLabelValues("gavax")))
	require.InDelta(t, 1.0001, testutil.ToFloat64(c.virtualPrice.WithLabelValues("gavax")), 1e-12)
	require.Equal(t, 0.0, testutil.ToFloat64(c.paused.WithLabelValues("gavax")))
}

func TestNewRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}
