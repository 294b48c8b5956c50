package aggregate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stableScope/internal/model"
	"stableScope/internal/storage"
)

type memorySink struct {
	calls   int
	metrics []model.PoolWindowMetrics
}

func (s *memorySink) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	s.calls++
	s.metrics = append(s.metrics, metrics...)
	return nil
}

func TestAggregatorWindows(t *testing.T) {
	dir := t.TempDir()
	input := writeTypedEvents(t, dir, []model.TypedEvent{
		typed(1, 120, "NewSwapFee", model.FeeEventData{Fee: "4000000"}),
		typed(2, 125, "AddLiquidity", model.LiquidityEventData{
			TokenAmounts:  [2]string{"1000", "1000"},
			Fees:          [2]string{"0", "0"},
			Invariant:     "2000",
			LPTokenSupply: "2000",
		}),
		typed(3, 130, "TokenSwap", model.TokenSwapEventData{
			TokensSold:   "1000000000000000000",
			TokensBought: "999600000000000000",
			SoldID:       0,
			BoughtID:     1,
		}),
		typed(4, 190, "TokenSwap", model.TokenSwapEventData{
			TokensSold:   "500000000000000000",
			TokensBought: "99960000000000000",
			SoldID:       1,
			BoughtID:     0,
		}),
		typed(5, 195, "RemoveLiquidityOne", model.RemoveLiquidityOneEventData{
			LPTokenAmount: "500",
			LPTokenSupply: "1500",
			BoughtID:      0,
			TokensBought:  "499",
		}),
	}, "not json")

	sink := &memorySink{}
	state := &FileStateStore{Path: filepath.Join(dir, "state.json"), Name: "aggregate:60"}
	agg := NewAggregator(Config{WindowSeconds: 60, StateStore: state}, sink, nil)
	if err := agg.Run(context.Background(), input); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.metrics) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(sink.metrics))
	}
	first, second := sink.metrics[0], sink.metrics[1]

	if first.WindowStart.Unix() != 120 || first.WindowEnd.Unix() != 180 {
		t.Fatalf("first window bounds: %v - %v", first.WindowStart, first.WindowEnd)
	}
	if first.SwapCount != 1 || first.Deposits != 1 || first.Withdrawals != 0 {
		t.Fatalf("first window counters: %+v", first)
	}
	if first.Volume0 != "1000000000000000000" || first.Volume1 != "999600000000000000" {
		t.Fatalf("first window volume: %s %s", first.Volume0, first.Volume1)
	}
	if first.Fee0 != "0" || first.Fee1 != "400000000000000" {
		t.Fatalf("first window fees: %s %s", first.Fee0, first.Fee1)
	}
	if first.Volume0Units != "1" || first.LPSupply == nil || *first.LPSupply != "2000" {
		t.Fatalf("first window units/supply: %+v", first)
	}

	if second.WindowStart.Unix() != 180 || second.Withdrawals != 1 || second.SwapCount != 1 {
		t.Fatalf("second window: %+v", second)
	}
	if second.Fee0 != "40000000000000" || second.Volume1Units != "0.5" {
		t.Fatalf("second window fee/units: %s %s", second.Fee0, second.Volume1Units)
	}
	if second.LPSupply == nil || *second.LPSupply != "1500" {
		t.Fatalf("second window supply: %v", second.LPSupply)
	}

	last, ok, err := state.Load(context.Background())
	if err != nil || !ok || last != 195 {
		t.Fatalf("state: %d %v %v", last, ok, err)
	}

	again := &memorySink{}
	if err := NewAggregator(Config{WindowSeconds: 60, StateStore: state}, again, nil).Run(context.Background(), input); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if again.calls != 0 {
		t.Fatalf("expected resumed run to emit nothing, got %d calls", again.calls)
	}
}

func TestAggregatorDefaultSwapFee(t *testing.T) {
	dir := t.TempDir()
	input := writeTypedEvents(t, dir, []model.TypedEvent{
		typed(1, 10, "TokenSwap", model.TokenSwapEventData{
			TokensSold:   "10000",
			TokensBought: "9996",
			SoldID:       1,
			BoughtID:     0,
		}),
		typed(2, 11, "TokenSwap", model.TokenSwapEventData{
			TokensSold:   "1",
			TokensBought: "1",
			SoldID:       1,
			BoughtID:     1,
		}),
	})

	sink := &memorySink{}
	agg := NewAggregator(Config{WindowSeconds: 3600, SwapFee: 4_000_000}, sink, nil)
	if err := agg.Run(context.Background(), input); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.metrics) != 1 {
		t.Fatalf("expected 1 window, got %d", len(sink.metrics))
	}
	if sink.metrics[0].Fee0 != "4" || sink.metrics[0].SwapCount != 1 {
		t.Fatalf("unexpected metrics: %+v", sink.metrics[0])
	}
}

func TestFileStateStoreKeepsNamesApart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	a := &FileStateStore{Path: path, Name: "a"}
	b := &FileStateStore{Path: path, Name: "b"}
	ctx := context.Background()

	if _, ok, err := a.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty state, got %v %v", ok, err)
	}
	if err := a.Save(ctx, 10); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := b.Save(ctx, 20); err != nil {
		t.Fatalf("save b: %v", err)
	}
	if ts, ok, _ := a.Load(ctx); !ok || ts != 10 {
		t.Fatalf("a: %d %v", ts, ok)
	}
	if ts, ok, _ := b.Load(ctx); !ok || ts != 20 {
		t.Fatalf("b: %d %v", ts, ok)
	}
}

func typed(seq, ts uint64, name string, decoded interface{}) model.TypedEvent {
	return model.TypedEvent{
		ChainID:   43114,
		Pool:      "gavax",
		Address:   "0x1111111111111111111111111111111111111111",
		Seq:       seq,
		EventName: name,
		Timestamp: ts,
		Decoded:   decoded,
	}
}

func writeTypedEvents(t *testing.T, dir string, events []model.TypedEvent, extra ...string) string {
	t.Helper()
	path := filepath.Join(dir, "typed.jsonl")
	w, err := storage.NewJSONLWriter(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, event := range events {
		if err := w.Write(event); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(extra) > 0 {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		for _, line := range extra {
			f.WriteString(line + "\n")
		}
		f.Close()
	}
	return path
}
