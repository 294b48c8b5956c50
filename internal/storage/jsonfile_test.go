package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJSONFileRoundTripLeavesNoTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "runner.json")

	var missing map[string]int
	found, err := ReadJSONFile(path, &missing)
	if err != nil || found {
		t.Fatalf("expected missing file, got found=%v err=%v", found, err)
	}

	if err := WriteJSONFile(path, map[string]int{"aggregator:300": 1700000300}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	got := map[string]int{}
	found, err = ReadJSONFile(path, &got)
	if err != nil || !found {
		t.Fatalf("read: found=%v err=%v", found, err)
	}
	if got["aggregator:300"] != 1700000300 {
		t.Fatalf("unexpected content: %v", got)
	}
}

func TestReadJSONFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var v map[string]int
	if _, err := ReadJSONFile(path, &v); err == nil {
		t.Fatalf("expected parse error")
	}
}
