package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"stableScope/internal/model"
	"stableScope/internal/storage"
)

// MetricsSink receives finished windows.
type MetricsSink interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
	// SwapFee is assumed until a NewSwapFee event is seen for a pool.
	SwapFee uint64
}

// Aggregator aggregates typed pool events into window metrics.
type Aggregator struct {
	cfg          Config
	sink         MetricsSink
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	swapFees     map[string]uint64
}

func NewAggregator(cfg Config, sink MetricsSink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		swapFees:     make(map[string]uint64),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.sink == nil {
		return fmt.Errorf("metrics sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, windows, skipped, failed int

	err = storage.ScanLines(file, func(_ int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			return nil
		}

		key := poolKey(record)
		// Fee changes apply to later swaps even when the record itself is
		// before the resume point.
		if err := a.trackSwapFee(key, record); err != nil {
			failed++
			a.logger.Warn("swap fee event", zap.Error(err), zap.String("pool", record.Pool))
			return nil
		}

		if record.Timestamp <= startTs {
			skipped++
			return nil
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[key]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[key] = acc
		} else if acc.WindowStart != windowStart {
			batch = append(batch, a.buildMetrics(acc))
			windows++
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[key] = acc
		}

		if err := acc.AddEvent(record, a.swapFee(key)); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Pool), zap.String("event", record.EventName))
			return nil
		}

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, acc := range a.accumulators {
		batch = append(batch, a.buildMetrics(acc))
		windows++
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

func (a *Aggregator) trackSwapFee(key string, record model.TypedEventRecord) error {
	if record.EventName != "NewSwapFee" {
		return nil
	}
	var fee model.FeeEventData
	if err := json.Unmarshal(record.Decoded, &fee); err != nil {
		return fmt.Errorf("decode swap fee: %w", err)
	}
	value, err := parseBigInt(fee.Fee)
	if err != nil {
		return err
	}
	if !value.IsUint64() {
		return fmt.Errorf("swap fee %s out of range", fee.Fee)
	}
	a.swapFees[key] = value.Uint64()
	return nil
}

func (a *Aggregator) swapFee(key string) uint64 {
	if fee, ok := a.swapFees[key]; ok {
		return fee
	}
	return a.cfg.SwapFee
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) buildMetrics(acc *Accumulator) model.PoolWindowMetrics {
	var lpSupply *string
	if acc.LPSupply != nil {
		val := acc.LPSupply.String()
		lpSupply = &val
	}
	return model.PoolWindowMetrics{
		ChainID:        acc.ChainID,
		Pool:           acc.Pool,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		Volume0:        bigString(acc.Volume[0]),
		Volume1:        bigString(acc.Volume[1]),
		Fee0:           bigString(acc.Fee[0]),
		Fee1:           bigString(acc.Fee[1]),
		Volume0Units:   formatUnits(acc.Volume[0]),
		Volume1Units:   formatUnits(acc.Volume[1]),
		Deposits:       acc.Deposits,
		Withdrawals:    acc.Withdrawals,
		LPSupply:       lpSupply,
	}
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(record model.TypedEventRecord) string {
	return record.Pool + "@" + strings.ToLower(record.Address)
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
