// Package oracle supplies the receipt token price (pricePerShare, 18 decimals)
// that the pool uses to value token1.
package oracle

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
)

// PriceScale is the fixed-point scale of a price: 1e18 means parity.
const PriceScale = 1_000_000_000_000_000_000

var ErrZeroPrice = errors.New("oracle: price is zero")

// Feed holds the latest known price. It is the point-in-time view handed to
// a pool; hosts refresh it from a Source.
type Feed struct {
	mu    sync.RWMutex
	price *uint256.Int
}

// NewFeed returns a feed seeded with price.
func NewFeed(price *uint256.Int) *Feed {
	return &Feed{price: price.Clone()}
}

// Parity returns a feed fixed at 1e18.
func Parity() *Feed {
	return NewFeed(uint256.NewInt(PriceScale))
}

// PricePerShare returns the current price.
func (f *Feed) PricePerShare() (*uint256.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.price == nil || f.price.IsZero() {
		return nil, ErrZeroPrice
	}
	return f.price.Clone(), nil
}

// Set replaces the current price.
func (f *Feed) Set(price *uint256.Int) error {
	if price == nil || price.IsZero() {
		return ErrZeroPrice
	}
	f.mu.Lock()
	f.price = price.Clone()
	f.mu.Unlock()
	return nil
}
