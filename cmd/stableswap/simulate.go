package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stableScope/internal/config"
	"stableScope/internal/events"
	"stableScope/internal/lptoken"
	"stableScope/internal/metrics"
	"stableScope/internal/oracle"
	"stableScope/internal/pool"
	"stableScope/internal/sim"
	"stableScope/internal/storage"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Script == "" {
		return fmt.Errorf("script path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Pool.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	owner, err := config.ParseAddress(cfg.Pool.Owner)
	if err != nil {
		return fmt.Errorf("parse owner: %w", err)
	}
	address, err := config.ParseAddress(cfg.Pool.Address)
	if err != nil {
		return fmt.Errorf("parse address: %w", err)
	}
	caller := owner
	if cfg.Caller != "" {
		if caller, err = config.ParseAddress(cfg.Caller); err != nil {
			return fmt.Errorf("parse caller: %w", err)
		}
	}
	price, err := config.ParseAmount(cfg.Pool.Price)
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}
	if price == nil {
		return fmt.Errorf("price is required")
	}
	startTime, err := config.ParseTimestamp(cfg.StartTime)
	if err != nil {
		return fmt.Errorf("parse start-time: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, closeSnapshots, err := openSnapshots(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeSnapshots()

	feed := oracle.NewFeed(price)
	clock := pool.NewManualClock(startTime)

	snap, found, err := loadSnapshot(ctx, snapshots, cfg.Pool.Name)
	if err != nil {
		return err
	}

	var p *pool.Pool
	if found {
		if startTime == 0 {
			clock.Set(snap.Timestamp)
		}
		if p, err = restorePool(snap, feed, clock, logger); err != nil {
			return err
		}
		address = snap.Address
		logger.Info("pool restored", zap.String("pool", snap.Pool), zap.Uint64("seq", snap.Seq), zap.Uint64("timestamp", snap.Timestamp))
	} else {
		if startTime == 0 {
			clock.Set(uint64(time.Now().Unix()))
		}
		p, err = pool.New(pool.Config{
			Name:             cfg.Pool.Name,
			Symbol:           cfg.Pool.Symbol,
			Address:          address,
			Owner:            owner,
			TokenID:          cfg.Pool.TokenID,
			A:                cfg.Pool.A,
			SwapFee:          cfg.Pool.SwapFee,
			AdminFee:         cfg.Pool.AdminFee,
			RequireAllTokens: cfg.Pool.RequireAllTokens,
		}, pool.Deps{
			Ledger: lptoken.NewLedger(cfg.Pool.Name+" LP", cfg.Pool.Symbol, address),
			Price:  feed,
			Clock:  clock,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
	}

	encoder, err := events.NewEncoder(cfg.Pool.ChainID, address)
	if err != nil {
		return err
	}

	var (
		observers []sim.Observer
		registry  *prometheus.Registry
	)
	if cfg.MetricsOut != "" {
		registry = prometheus.NewRegistry()
		collector, err := metrics.New(registry)
		if err != nil {
			return err
		}
		p.AddSink(collector)
		observers = append(observers, collector)
	}

	runner := sim.NewRunner(sim.RunConfig{
		ScriptPath:        cfg.Script,
		DefaultCaller:     caller,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		StopOnError:       cfg.StopOnError,
	}, sim.Deps{
		Pool:      p,
		Clock:     clock,
		Feed:      feed,
		Encoder:   encoder,
		Storage:   storage.NewJsonlStorage(cfg.Out),
		Snapshots: snapshots,
		Observers: observers,
	}, logger)

	logger.Info("simulate start",
		zap.String("pool", cfg.Pool.Name),
		zap.String("script", cfg.Script),
		zap.String("out", cfg.Out),
		zap.String("owner", owner.Hex()),
		zap.Uint64("start_time", clock.Now()),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.Bool("stop_on_error", cfg.StopOnError),
	)

	_, runErr := runner.Run(ctx)

	if registry != nil {
		if err := prometheus.WriteToTextfile(cfg.MetricsOut, registry); err != nil {
			logger.Error("write metrics", zap.String("path", cfg.MetricsOut), zap.Error(err))
		}
	}

	if runErr != nil {
		return runErr
	}
	if p.Paused() {
		logger.Warn("pool left paused")
	}
	logger.Info("pool state",
		zap.Uint64("seq", p.Snapshot().Seq),
		zap.String("a", p.A().Dec()),
		zap.String("balance0", p.Balances()[0].Dec()),
		zap.String("balance1", p.Balances()[1].Dec()),
	)
	return nil
}
