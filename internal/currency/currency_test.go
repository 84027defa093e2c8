package currency

import (
	"testing"
)

func TestConvertPrice(t *testing.T) {
	if got := ConvertPrice(100, "MXN"); got != 100 {
		t.Errorf("expected 100, got %v", got)
	}
	if got := ConvertPrice(100, "USD"); got != 5.8 {
		t.Errorf("expected 5.8, got %v", got)
	}
	// Unknown codes fall back to the base rate.
	if got := ConvertPrice(100, "GBP"); got != 100 {
		t.Errorf("expected base fallback 100, got %v", got)
	}
}

func TestFormatPrice(t *testing.T) {
	t.Run("BaseCurrencyZeroDecimals", func(t *testing.T) {
		if got := FormatPrice(100, "MXN"); got != "$100 MXN" {
			t.Errorf("expected $100 MXN, got %q", got)
		}
	})

	t.Run("NonBaseTwoDecimals", func(t *testing.T) {
		if got := FormatPrice(100, "USD"); got != "$5.80 USD" {
			t.Errorf("expected $5.80 USD, got %q", got)
		}
	})

	t.Run("Grouping", func(t *testing.T) {
		if got := FormatPrice(1500, "MXN"); got != "$1,500 MXN" {
			t.Errorf("expected $1,500 MXN, got %q", got)
		}
	})

	t.Run("UnknownCodeFallsBackToBase", func(t *testing.T) {
		if got := FormatPrice(100, "JPY"); got != "$100 MXN" {
			t.Errorf("expected $100 MXN, got %q", got)
		}
	})
}
