package events

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokensSold", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "tokensBought", "type": "uint256"},
      {"indexed": false, "internalType": "uint128", "name": "soldId", "type": "uint128"},
      {"indexed": false, "internalType": "uint128", "name": "boughtId", "type": "uint128"}
    ],
    "name": "TokenSwap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "fees", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256", "name": "invariant", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"}
    ],
    "name": "AddLiquidity",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"}
    ],
    "name": "RemoveLiquidity",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenAmount", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "boughtId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "tokensBought", "type": "uint256"}
    ],
    "name": "RemoveLiquidityOne",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "provider", "type": "address"},
      {"indexed": false, "internalType": "uint256[]", "name": "tokenAmounts", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256[]", "name": "fees", "type": "uint256[]"},
      {"indexed": false, "internalType": "uint256", "name": "invariant", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "lpTokenSupply", "type": "uint256"}
    ],
    "name": "RemoveLiquidityImbalance",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "newAdminFee", "type": "uint256"}
    ],
    "name": "NewAdminFee",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "newSwapFee", "type": "uint256"}
    ],
    "name": "NewSwapFee",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "oldA", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "newA", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "initialTime", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "futureTime", "type": "uint256"}
    ],
    "name": "RampA",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "currentA", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "time", "type": "uint256"}
    ],
    "name": "StopRampA",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "account", "type": "address"}
    ],
    "name": "Paused",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "account", "type": "address"}
    ],
    "name": "Unpaused",
    "type": "event"
  }
]`

var (
	poolABI     abi.ABI
	poolABIOnce sync.Once
	poolABIErr  error
)

// PoolABI returns the parsed pool event ABI.
func PoolABI() (abi.ABI, error) {
	poolABIOnce.Do(func() {
		poolABI, poolABIErr = abi.JSON(strings.NewReader(poolEventsABIJSON))
	})
	return poolABI, poolABIErr
}
