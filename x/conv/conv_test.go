package conv

import (
	"math"
	"strconv"
	"testing"
)

func TestUtoa(t *testing.T) {
	for _, n := range []uint64{0, 7, 10, 860, math.MaxUint64} {
		var b [20]byte
		if got, want := string(Utoa(b[:], n)), strconv.FormatUint(n, 10); got != want {
			t.Fatalf("Utoa(%d) = %q", n, got)
		}
	}
}

func TestItoa(t *testing.T) {
	for _, n := range []int64{0, -1, 42, -32768, math.MaxInt64, math.MinInt64} {
		var b [20]byte
		if got, want := string(Itoa(b[:], n)), strconv.FormatInt(n, 10); got != want {
			t.Fatalf("Itoa(%d) = %q", n, got)
		}
	}
}

func TestHex(t *testing.T) {
	var b [8]byte
	if got := string(Hex(b[:], 0x48, 2)); got != "48" {
		t.Fatalf("Hex(0x48, 2) = %q", got)
	}
	if got := string(Hex(b[:], 0x8583, 4)); got != "8583" {
		t.Fatalf("Hex(0x8583, 4) = %q", got)
	}
	if got := string(Hex(b[:], 0xABC, 8)); got != "00000ABC" {
		t.Fatalf("Hex(0xABC, 8) = %q", got)
	}
	if got := Hex(b[:1], 1, 2); len(got) != 0 {
		t.Fatalf("short buffer returned %q", got)
	}
}
