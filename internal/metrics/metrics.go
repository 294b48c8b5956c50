// Package metrics exposes pool activity as Prometheus collectors. A Collector
// is a pool.Sink for event counters and volumes; balance gauges are refreshed
// from snapshots.
package metrics

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"stableScope/internal/model"
	"stableScope/internal/pool"
)

const namespace = "stableswap"

type Collector struct {
	events       *prometheus.CounterVec
	swapVolume   *prometheus.CounterVec
	balance      *prometheus.GaugeVec
	adminBalance *prometheus.GaugeVec
	lpSupply     *prometheus.GaugeVec
	virtualPrice *prometheus.GaugeVec
	amp          *prometheus.GaugeVec
	paused       *prometheus.GaugeVec
}

// New creates the collectors and registers them with r.
func New(r prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "pool events published, by event name",
		}, []string{"pool", "event"}),
		swapVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_volume_tokens_total",
			Help:      "tokens moved through swaps, in whole tokens",
		}, []string{"pool", "token"}),
		balance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "balance_tokens",
			Help:      "pool reserves, in whole tokens",
		}, []string{"pool", "token"}),
		adminBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "admin_balance_tokens",
			Help:      "accrued admin fees, in whole tokens",
		}, []string{"pool", "token"}),
		lpSupply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lp_supply_tokens",
			Help:      "LP token total supply, in whole tokens",
		}, []string{"pool"}),
		virtualPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "virtual_price",
			Help:      "LP token virtual price",
		}, []string{"pool"}),
		amp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "future_a",
			Help:      "target amplification coefficient (not precise)",
		}, []string{"pool"}),
		paused: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "paused",
			Help:      "1 while the pool is paused",
		}, []string{"pool"}),
	}
	for _, collector := range []prometheus.Collector{
		c.events, c.swapVolume, c.balance, c.adminBalance, c.lpSupply, c.virtualPrice, c.amp, c.paused,
	} {
		if err := r.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Publish implements pool.Sink.
func (c *Collector) Publish(env pool.Envelope) {
	c.events.WithLabelValues(env.Pool, env.Event.EventName()).Inc()
	switch ev := env.Event.(type) {
	case pool.TokenSwap:
		c.swapVolume.WithLabelValues(env.Pool, token(ev.SoldID)).Add(units(ev.TokensSold))
		c.swapVolume.WithLabelValues(env.Pool, token(ev.BoughtID)).Add(units(ev.TokensBought))
	case pool.AddLiquidity:
		c.lpSupply.WithLabelValues(env.Pool).Set(units(ev.LPTokenSupply))
	case pool.RemoveLiquidity:
		c.lpSupply.WithLabelValues(env.Pool).Set(units(ev.LPTokenSupply))
	case pool.RemoveLiquidityOne:
		c.lpSupply.WithLabelValues(env.Pool).Set(units(ev.LPTokenSupply))
	case pool.RemoveLiquidityImbalance:
		c.lpSupply.WithLabelValues(env.Pool).Set(units(ev.LPTokenSupply))
	case pool.Paused:
		c.paused.WithLabelValues(env.Pool).Set(1)
	case pool.Unpaused:
		c.paused.WithLabelValues(env.Pool).Set(0)
	}
}

// Observe refreshes the gauges from a snapshot.
func (c *Collector) Observe(snap model.PoolSnapshot) {
	for i := range snap.Balances {
		c.balance.WithLabelValues(snap.Pool, token(uint8(i))).Set(units(snap.Balances[i]))
		c.adminBalance.WithLabelValues(snap.Pool, token(uint8(i))).Set(units(snap.AdminBalances[i]))
	}
	c.lpSupply.WithLabelValues(snap.Pool).Set(units(snap.LPTotalSupply))
	if snap.VirtualPrice != nil {
		c.virtualPrice.WithLabelValues(snap.Pool).Set(units(snap.VirtualPrice))
	}
	if snap.FutureA != nil {
		c.amp.WithLabelValues(snap.Pool).Set(float64(snap.FutureA.Uint64()) / 100)
	}
	paused := 0.0
	if snap.Paused {
		paused = 1
	}
	c.paused.WithLabelValues(snap.Pool).Set(paused)
}

func token(id uint8) string {
	return strconv.Itoa(int(id))
}

// units converts an 18-decimal amount to a float in whole tokens.
func units(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	return decimal.NewFromBigInt(v.ToBig(), -18).InexactFloat64()
}
