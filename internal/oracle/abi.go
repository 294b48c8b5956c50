package oracle

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const receiptTokenABIJSON = `[
  {
    "inputs": [{"internalType": "uint256", "name": "id", "type": "uint256"}],
    "name": "pricePerShare",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	receiptTokenABI     abi.ABI
	receiptTokenABIOnce sync.Once
	receiptTokenABIErr  error
)

// ReceiptTokenABI returns the parsed receipt token ABI.
func ReceiptTokenABI() (abi.ABI, error) {
	receiptTokenABIOnce.Do(func() {
		receiptTokenABI, receiptTokenABIErr = abi.JSON(strings.NewReader(receiptTokenABIJSON))
	})
	return receiptTokenABI, receiptTokenABIErr
}
