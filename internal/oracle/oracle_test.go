package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	price    *big.Int
	failures int
	calls    int
	lastData []byte
	lastTo   common.Address
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	f.lastData = msg.Data
	if msg.To != nil {
		f.lastTo = *msg.To
	}
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("rpc unavailable")
	}
	tokenABI, err := ReceiptTokenABI()
	if err != nil {
		return nil, err
	}
	return tokenABI.Methods["pricePerShare"].Outputs.Pack(f.price)
}

var token = common.HexToAddress("0x0000000000000000000000000000000000000abc")

func TestFeed(t *testing.T) {
	feed := Parity()
	price, err := feed.PricePerShare()
	require.NoError(t, err)
	require.Equal(t, uint64(PriceScale), price.Uint64())

	require.ErrorIs(t, feed.Set(uint256.NewInt(0)), ErrZeroPrice)
	require.NoError(t, feed.Set(uint256.NewInt(1_200_000_000_000_000_000)))

	price, err = feed.PricePerShare()
	require.NoError(t, err)
	require.Equal(t, uint64(1_200_000_000_000_000_000), price.Uint64())

	// returned values are copies
	price.SetUint64(7)
	again, err := feed.PricePerShare()
	require.NoError(t, err)
	require.Equal(t, uint64(1_200_000_000_000_000_000), again.Uint64())
}

func TestChainSourcePricePerShare(t *testing.T) {
	caller := &fakeCaller{price: big.NewInt(1_050_000_000_000_000_000)}
	src, err := NewChainSource(ChainSourceConfig{Token: token, TokenID: big.NewInt(7)}, caller, nil)
	require.NoError(t, err)

	price, err := src.PricePerShare(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1_050_000_000_000_000_000), price.Uint64())
	require.Equal(t, token, caller.lastTo)
	require.Len(t, caller.lastData, 4+32)
	require.Equal(t, byte(7), caller.lastData[len(caller.lastData)-1])

	// cached by block number
	_, err = src.PricePerShare(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 1, caller.calls)

	// latest is never cached
	_, err = src.PricePerShare(context.Background(), 0)
	require.NoError(t, err)
	_, err = src.PricePerShare(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 3, caller.calls)
}

func TestChainSourceRetries(t *testing.T) {
	caller := &fakeCaller{price: big.NewInt(PriceScale), failures: 2}
	src, err := NewChainSource(ChainSourceConfig{
		Token:        token,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, caller, nil)
	require.NoError(t, err)

	feed := NewFeed(uint256.NewInt(1))
	price, err := src.Refresh(context.Background(), feed, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(PriceScale), price.Uint64())
	require.Equal(t, 3, caller.calls)

	got, err := feed.PricePerShare()
	require.NoError(t, err)
	require.Equal(t, uint64(PriceScale), got.Uint64())
}

func TestChainSourceGivesUp(t *testing.T) {
	caller := &fakeCaller{price: big.NewInt(PriceScale), failures: 5}
	src, err := NewChainSource(ChainSourceConfig{Token: token, MaxRetries: 1, RetryBackoff: time.Millisecond}, caller, nil)
	require.NoError(t, err)

	_, err = src.PricePerShare(context.Background(), 9)
	require.Error(t, err)
	require.Equal(t, 2, caller.calls)
}

func TestChainSourceRejectsZeroPrice(t *testing.T) {
	caller := &fakeCaller{price: big.NewInt(0)}
	src, err := NewChainSource(ChainSourceConfig{Token: token}, caller, nil)
	require.NoError(t, err)

	_, err = src.PricePerShare(context.Background(), 1)
	require.ErrorIs(t, err, ErrZeroPrice)
}

func TestNewChainSourceValidates(t *testing.T) {
	_, err := NewChainSource(ChainSourceConfig{Token: token}, nil, nil)
	require.Error(t, err)
	_, err = NewChainSource(ChainSourceConfig{}, &fakeCaller{}, nil)
	require.Error(t, err)
}

type garbageCaller struct{ calls int }

func (g *garbageCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	g.calls++
	return []byte{0x01}, nil
}

func TestChainSourceDoesNotRetryUndecodableResponse(t *testing.T) {
	caller := &garbageCaller{}
	src, err := NewChainSource(ChainSourceConfig{Token: token, MaxRetries: 3, RetryBackoff: time.Millisecond}, caller, nil)
	require.NoError(t, err)

	_, err = src.PricePerShare(context.Background(), 2)
	require.Error(t, err)
	require.Equal(t, 1, caller.calls)
}

func TestChainSourceStopsOnCancel(t *testing.T) {
	caller := &fakeCaller{price: big.NewInt(PriceScale), failures: 10}
	src, err := NewChainSource(ChainSourceConfig{Token: token, MaxRetries: 10, RetryBackoff: time.Hour}, caller, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = src.PricePerShare(ctx, 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, caller.calls)
}
