package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Pool        string
	Store       StoreConfig
	Price       string
	From        int
	To          int
	Amount      string
	Deposit     []string
	Withdraw    string
	WithdrawOne string
	Index       int
	LogLevel    string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"pool": "gAVAX",
		"to":   1,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Pool:        v.GetString("pool"),
		Store:       loadStore(v),
		Price:       v.GetString("price"),
		From:        v.GetInt("from"),
		To:          v.GetInt("to"),
		Amount:      v.GetString("amount"),
		Deposit:     getStringSlice(v, "deposit"),
		Withdraw:    v.GetString("withdraw"),
		WithdrawOne: v.GetString("withdraw-one"),
		Index:       v.GetInt("index"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}

// DebtConfig holds configuration for the debt command. Without Price the
// oracle is read over RPC.
type DebtConfig struct {
	Pool         string
	Store        StoreConfig
	Price        string
	RPCURL       string
	Token        string
	TokenID      uint64
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadDebt merges config file, environment variables, and flags into DebtConfig.
func LoadDebt(cfgFile string, flags *pflag.FlagSet) (DebtConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"pool":          "gAVAX",
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
	})
	if err != nil {
		return DebtConfig{}, err
	}

	return DebtConfig{
		Pool:         v.GetString("pool"),
		Store:        loadStore(v),
		Price:        v.GetString("price"),
		RPCURL:       v.GetString("rpc"),
		Token:        v.GetString("token"),
		TokenID:      v.GetUint64("token-id"),
		Block:        v.GetUint64("block"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
