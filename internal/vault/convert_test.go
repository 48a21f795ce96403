package vault

import (
	"errors"
	"math"
	"testing"

	"github.com/jambo-bank/jambo_bank/internal/ledger"
)

func TestToTokenUnits(t *testing.T) {
	cases := []struct {
		name      string
		amount    uint64
		decimals  uint8
		scale     uint64
		units     uint64
		remainder uint64
	}{
		{"deposit 500 at 6 decimals", 500, 6, 100, 5_000_000, 0},
		{"withdraw 100 at 6 decimals", 100, 6, 100, 1_000_000, 0},
		{"truncates below one base unit", 1, 0, 100, 0, 1},
		{"exact tenths", 250, 1, 100, 25, 0},
		{"odd remainder", 7, 1, 100, 0, 70},
		{"scale of one", 3, 2, 1, 300, 0},
		{"zero amount", 0, 9, 100, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			units, rem, err := ToTokenUnits(tc.amount, tc.decimals, tc.scale)
			if err != nil {
				t.Fatalf("convert: %v", err)
			}
			if units != tc.units || rem != tc.remainder {
				t.Fatalf("expected %d r%d, got %d r%d", tc.units, tc.remainder, units, rem)
			}
		})
	}
}

func TestToTokenUnitsFailures(t *testing.T) {
	if _, _, err := ToTokenUnits(1, 0, 0); !errors.Is(err, ErrInvalidScale) {
		t.Fatalf("expected invalid scale, got %v", err)
	}
	if _, _, err := ToTokenUnits(math.MaxUint64, 1, 100); !errors.Is(err, ledger.ErrArithmeticOverflow) {
		t.Fatalf("expected multiply overflow, got %v", err)
	}
	if _, _, err := ToTokenUnits(1, 20, 100); !errors.Is(err, ledger.ErrArithmeticOverflow) {
		t.Fatalf("expected power overflow, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	if got := FormatUnits(5_000_000, 6); got != "5" {
		t.Fatalf("format units: %s", got)
	}
	if got := FormatUnits(1_234_567, 6); got != "1.234567" {
		t.Fatalf("format units: %s", got)
	}
	if got := FormatInternal(250, 100); got != "2.5" {
		t.Fatalf("format internal: %s", got)
	}
}
