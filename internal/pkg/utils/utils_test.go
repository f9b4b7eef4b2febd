package utils

import (
	"math/big"
	"testing"
)

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	batches := Chunk(items, 2)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[2]) != 1 || batches[2][0] != 5 {
		t.Errorf("last batch = %v", batches[2])
	}

	if got := Chunk(items, 0); len(got) != 1 || len(got[0]) != 5 {
		t.Errorf("non-positive batch size should yield one batch, got %v", got)
	}
	if got := Chunk([]int{}, 2); len(got) != 0 {
		t.Errorf("empty input should yield no batches, got %v", got)
	}
}

func TestFormatRawAmount(t *testing.T) {
	amount, _ := new(big.Int).SetString("1234500000000000000", 10)
	if got := FormatRawAmount(amount, 18); got != "1.2345" {
		t.Errorf("FormatRawAmount = %q, want 1.2345", got)
	}
	if got := FormatRawAmount(big.NewInt(350000), 6); got != "0.35" {
		t.Errorf("FormatRawAmount = %q, want 0.35", got)
	}
	if got := FormatRawAmount(nil, 18); got != "0" {
		t.Errorf("FormatRawAmount(nil) = %q, want 0", got)
	}
	if got := FormatRawAmount(big.NewInt(42), 0); got != "42" {
		t.Errorf("FormatRawAmount = %q, want 42", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("NAV_TEST_KEY", "value")
	if got := GetEnv("NAV_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("NAV_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv fallback = %q", got)
	}
}
