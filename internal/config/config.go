package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STABLESWAP"

// load builds a viper instance from defaults, environment, flags and an
// optional config file. Without cfgFile a missing ./config.* is ignored.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// PoolConfig holds the parameters a new pool is created with.
type PoolConfig struct {
	Name             string
	Symbol           string
	Address          string
	Owner            string
	ChainID          uint64
	TokenID          uint64
	A                uint64
	SwapFee          uint64
	AdminFee         uint64
	Price            string
	RequireAllTokens bool
}

func poolDefaults() map[string]interface{} {
	return map[string]interface{}{
		"name":      "gAVAX",
		"symbol":    "gAVAX-LP",
		"chain-id":  uint64(43114),
		"a":         uint64(60),
		"swap-fee":  uint64(4_000_000),
		"admin-fee": uint64(0),
		"price":     "1000000000000000000",
	}
}

func loadPool(v *viper.Viper) PoolConfig {
	return PoolConfig{
		Name:             v.GetString("name"),
		Symbol:           v.GetString("symbol"),
		Address:          v.GetString("address"),
		Owner:            v.GetString("owner"),
		ChainID:          v.GetUint64("chain-id"),
		TokenID:          v.GetUint64("token-id"),
		A:                v.GetUint64("a"),
		SwapFee:          v.GetUint64("swap-fee"),
		AdminFee:         v.GetUint64("admin-fee"),
		Price:            v.GetString("price"),
		RequireAllTokens: v.GetBool("require-all-tokens"),
	}
}

// StoreConfig selects where pool snapshots live. PGDSN wins when both are
// set.
type StoreConfig struct {
	SnapshotDB string
	PGDSN      string
}

func loadStore(v *viper.Viper) StoreConfig {
	return StoreConfig{
		SnapshotDB: v.GetString("snapshot-db"),
		PGDSN:      v.GetString("pg-dsn"),
	}
}

// ParseAmount parses a decimal or 0x-prefixed amount. Empty input is nil.
func ParseAmount(input string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	out := new(uint256.Int)
	if err := out.UnmarshalText([]byte(input)); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	return out, nil
}

// ParseAmountPair parses exactly two amounts from a list or a comma separated
// string.
func ParseAmountPair(items []string) ([2]*uint256.Int, error) {
	var out [2]*uint256.Int
	items = cleanStrings(items)
	if len(items) == 1 {
		items = splitAndClean(items[0])
	}
	if len(items) != 2 {
		return out, fmt.Errorf("expected 2 amounts, got %d", len(items))
	}
	for i, item := range items {
		amount, err := ParseAmount(item)
		if err != nil {
			return out, err
		}
		out[i] = amount
	}
	return out, nil
}

// ParseAddress parses a hex address; empty input is the zero address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
