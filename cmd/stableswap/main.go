package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "stableswap",
		Short:        "StableSwap pool simulator and debt reconciler",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay an operation script against a pool and journal its events",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("script", "", "operation script JSONL")
	simulateCmd.Flags().String("out", "./data/events.jsonl", "output event journal JSONL")
	simulateCmd.Flags().String("checkpoint", "./data/sim_checkpoint.json", "checkpoint file path")
	simulateCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	simulateCmd.Flags().Bool("stop-on-error", false, "stop at the first failed operation")
	simulateCmd.Flags().String("caller", "", "default caller address (defaults to the owner)")
	simulateCmd.Flags().String("start-time", "", "initial clock (unix seconds or RFC3339), defaults to now")
	simulateCmd.Flags().String("metrics-out", "", "write Prometheus metrics to this textfile after the run")
	addPoolFlags(simulateCmd)
	addStoreFlags(simulateCmd)
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote swaps and liquidity changes against a stored pool snapshot",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("pool", "gAVAX", "pool name")
	quoteCmd.Flags().String("price", "1000000000000000000", "token1 pricePerShare (1e18 = parity)")
	quoteCmd.Flags().Int("from", 0, "swap input token index")
	quoteCmd.Flags().Int("to", 1, "swap output token index")
	quoteCmd.Flags().String("amount", "", "swap input amount")
	quoteCmd.Flags().StringSlice("deposit", nil, "deposit amounts (two, comma-separated)")
	quoteCmd.Flags().String("withdraw", "", "LP amount to withdraw proportionally")
	quoteCmd.Flags().String("withdraw-one", "", "LP amount to withdraw in a single token")
	quoteCmd.Flags().Int("index", 0, "token index for --withdraw-one")
	addStoreFlags(quoteCmd)
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	debtCmd := &cobra.Command{
		Use:   "debt",
		Short: "Compute the token0 needed to restore the pool to the oracle price",
		RunE:  runDebt,
	}

	debtCmd.Flags().String("pool", "gAVAX", "pool name")
	debtCmd.Flags().String("price", "", "token1 pricePerShare; read from the chain when empty")
	debtCmd.Flags().String("rpc", "", "RPC URL for the oracle")
	debtCmd.Flags().String("token", "", "receipt token contract exposing pricePerShare(uint256)")
	debtCmd.Flags().Uint64("token-id", 0, "receipt token id")
	debtCmd.Flags().Uint64("block", 0, "block to read the oracle at, 0 means latest")
	debtCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	debtCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	addStoreFlags(debtCmd)
	debtCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(debtCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode journaled logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "./data/events.jsonl", "input event journal JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate typed events into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input typed events JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().String("out", "", "window metrics JSONL, used when no Postgres DSN is given")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().Uint64("swap-fee", 4_000_000, "swap fee assumed before the first NewSwapFee event")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "gAVAX", "pool name")
	cmd.Flags().String("symbol", "gAVAX-LP", "LP token symbol")
	cmd.Flags().String("address", "", "pool address used in journaled logs")
	cmd.Flags().String("owner", "", "pool owner address")
	cmd.Flags().Uint64("chain-id", 43114, "chain id used in journaled logs")
	cmd.Flags().Uint64("token-id", 0, "receipt token id")
	cmd.Flags().Uint64("a", 60, "initial amplification coefficient")
	cmd.Flags().Uint64("swap-fee", 4_000_000, "swap fee over 1e10")
	cmd.Flags().Uint64("admin-fee", 0, "admin share of fees over 1e10")
	cmd.Flags().String("price", "1000000000000000000", "initial token1 pricePerShare")
	cmd.Flags().Bool("require-all-tokens", false, "reject deposits that skip a token the pool holds")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("snapshot-db", "", "Pebble directory for pool snapshots")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for pool snapshots")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
