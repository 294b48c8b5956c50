// Package sim replays operation scripts against a pool. Every event the pool
// publishes is encoded and journaled, and progress is checkpointed after
// each line so an interrupted run can resume from a restored snapshot.
package sim

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stableScope/internal/events"
	"stableScope/internal/model"
	"stableScope/internal/oracle"
	"stableScope/internal/pool"
	"stableScope/internal/storage"
)

// RunConfig holds runtime settings for a simulation.
type RunConfig struct {
	ScriptPath        string
	DefaultCaller     common.Address
	CheckpointPath    string
	CheckpointEnabled bool
	StopOnError       bool
}

// Observer is told about every committed snapshot.
type Observer interface {
	Observe(snap model.PoolSnapshot)
}

// Deps are the collaborators a Runner drives.
type Deps struct {
	Pool      *pool.Pool
	Clock     *pool.ManualClock
	Feed      *oracle.Feed
	Encoder   *events.Encoder
	Storage   storage.Storage
	Snapshots storage.SnapshotStore
	Observers []Observer
}

// Summary counts what a run did.
type Summary struct {
	Lines   int
	Applied int
	Failed  int
	Skipped int
	Events  int
}

// Runner applies script operations to a pool.
type Runner struct {
	cfg        RunConfig
	deps       Deps
	logger     *zap.Logger
	checkpoint *CheckpointStore

	mu      sync.Mutex
	pending []pool.Envelope
}

// NewRunner builds a Runner and subscribes it to the pool's events.
func NewRunner(cfg RunConfig, deps Deps, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:        cfg,
		deps:       deps,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
	if deps.Pool != nil {
		deps.Pool.AddSink(pool.SinkFunc(r.collect))
	}
	return r
}

func (r *Runner) collect(env pool.Envelope) {
	r.mu.Lock()
	r.pending = append(r.pending, env)
	r.mu.Unlock()
}

func (r *Runner) drain() []pool.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

// Run executes the script.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if r.deps.Pool == nil {
		return summary, fmt.Errorf("pool is nil")
	}
	if r.deps.Clock == nil || r.deps.Feed == nil {
		return summary, fmt.Errorf("clock and price feed are required")
	}
	if r.deps.Encoder == nil || r.deps.Storage == nil {
		return summary, fmt.Errorf("encoder and storage are required")
	}

	resumeAfter := 0
	cp, ok, err := r.checkpoint.Load(r.deps.Pool.Name())
	if err != nil {
		return summary, err
	}
	if ok {
		if seq := r.deps.Pool.Snapshot().Seq; seq != cp.Seq {
			return summary, fmt.Errorf("checkpoint seq %d does not match pool seq %d", cp.Seq, seq)
		}
		resumeAfter = cp.LastLine
		r.logger.Info("resume from checkpoint", zap.Int("last_line", cp.LastLine), zap.Uint64("seq", cp.Seq))
	}

	file, err := os.Open(r.cfg.ScriptPath)
	if err != nil {
		return summary, fmt.Errorf("open script: %w", err)
	}
	defer file.Close()

	err = storage.ScanLines(file, func(lineNo int, line []byte) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		summary.Lines++
		if lineNo <= resumeAfter {
			summary.Skipped++
			return nil
		}

		op, err := ParseOp(lineNo, line, r.cfg.DefaultCaller)
		if err != nil {
			return err
		}

		if err := r.apply(op); err != nil {
			summary.Failed++
			r.logger.Warn("operation failed",
				zap.Int("line", lineNo),
				zap.String("op", op.Kind),
				zap.String("caller", op.Caller.Hex()),
				zap.Error(err),
			)
			if r.cfg.StopOnError {
				return fmt.Errorf("line %d: %s: %w", lineNo, op.Kind, err)
			}
		} else {
			summary.Applied++
		}

		written, err := r.flush()
		if err != nil {
			return err
		}
		summary.Events += written
		return r.commit(ctx, lineNo)
	})
	if err != nil {
		return summary, err
	}

	r.logger.Info("simulate complete",
		zap.Int("lines", summary.Lines),
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("events", summary.Events),
	)
	return summary, nil
}

func (r *Runner) flush() (int, error) {
	envelopes := r.drain()
	if len(envelopes) == 0 {
		return 0, nil
	}
	records := make([]model.LogRecord, 0, len(envelopes))
	for _, env := range envelopes {
		record, err := r.deps.Encoder.Encode(env)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", env.Event.EventName(), err)
		}
		records = append(records, record)
	}
	if err := r.deps.Storage.PutLogBatch(records); err != nil {
		return 0, fmt.Errorf("store events: %w", err)
	}
	return len(records), nil
}

func (r *Runner) commit(ctx context.Context, lineNo int) error {
	snap := r.deps.Pool.Snapshot()
	for _, o := range r.deps.Observers {
		o.Observe(snap)
	}
	if r.deps.Snapshots != nil {
		if err := r.deps.Snapshots.PutSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}
	return r.checkpoint.Save(Checkpoint{Pool: snap.Pool, LastLine: lineNo, Seq: snap.Seq, Timestamp: snap.Timestamp})
}

func (r *Runner) apply(op Op) error {
	p := r.deps.Pool
	switch op.Kind {
	case OpAdd:
		minted, err := p.AddLiquidity(op.Caller, op.Amounts, op.Limit, op.Deadline)
		if err == nil {
			r.logger.Debug("add liquidity", zap.Int("line", op.Line), zap.String("minted", minted.Dec()))
		}
		return err
	case OpRemove:
		out, err := p.RemoveLiquidity(op.Caller, op.Amount, op.Limits, op.Deadline)
		if err == nil {
			r.logger.Debug("remove liquidity", zap.Int("line", op.Line), zap.String("amount0", out[0].Dec()), zap.String("amount1", out[1].Dec()))
		}
		return err
	case OpRemoveImbalance:
		burned, err := p.RemoveLiquidityImbalance(op.Caller, op.Amounts, op.Limit, op.Deadline)
		if err == nil {
			r.logger.Debug("remove imbalance", zap.Int("line", op.Line), zap.String("burned", burned.Dec()))
		}
		return err
	case OpRemoveOne:
		dy, err := p.RemoveLiquidityOneToken(op.Caller, op.Amount, op.Index, op.Limit, op.Deadline)
		if err == nil {
			r.logger.Debug("remove one token", zap.Int("line", op.Line), zap.String("dy", dy.Dec()))
		}
		return err
	case OpSwap:
		dy, err := p.Swap(op.Caller, op.From, op.To, op.Amount, op.Limit, op.Deadline)
		if err == nil {
			r.logger.Debug("swap", zap.Int("line", op.Line), zap.String("dy", dy.Dec()))
		}
		return err
	case OpRamp:
		futureTime := op.FutureTime
		if futureTime == 0 {
			futureTime = r.deps.Clock.Now() + uint64(op.By/time.Second)
		}
		return p.RampA(op.Caller, op.Value, futureTime)
	case OpStopRamp:
		return p.StopRampA(op.Caller)
	case OpSetSwapFee:
		return p.SetSwapFee(op.Caller, op.Value)
	case OpSetAdminFee:
		return p.SetAdminFee(op.Caller, op.Value)
	case OpWithdrawAdminFees:
		_, err := p.WithdrawAdminFees(op.Caller)
		return err
	case OpPause:
		return p.Pause(op.Caller)
	case OpUnpause:
		return p.Unpause(op.Caller)
	case OpAdvance:
		now := r.deps.Clock.Advance(op.By)
		r.logger.Debug("advance clock", zap.Int("line", op.Line), zap.Uint64("now", now))
		return nil
	case OpPrice:
		return r.deps.Feed.Set(op.Amount)
	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}
}
