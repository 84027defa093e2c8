package orderid

import (
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	date := time.Date(2026, time.February, 9, 12, 0, 0, 0, time.UTC)

	t.Run("SingleBeatType", func(t *testing.T) {
		got := Generate([]string{"beat"}, "tx_9f3kab12", date)
		if got != "BT-090226-AB12" {
			t.Errorf("expected BT-090226-AB12, got %q", got)
		}
	})

	t.Run("MixedTypes", func(t *testing.T) {
		got := Generate([]string{"beat", "sound_kit"}, "tx_9f3kab12", date)
		if got != "MX-090226-AB12" {
			t.Errorf("expected MX-090226-AB12, got %q", got)
		}
	})

	t.Run("LicenseCountsAsBeat", func(t *testing.T) {
		// A beat and its license tier are the same product family.
		got := Generate([]string{"beat", "license"}, "tx_9f3kab12", date)
		if got != "BT-090226-AB12" {
			t.Errorf("expected BT-090226-AB12, got %q", got)
		}
	})

	t.Run("SoundKit", func(t *testing.T) {
		got := Generate([]string{"sound_kit"}, "tx_00zz", date)
		if got != "SK-090226-00ZZ" {
			t.Errorf("expected SK-090226-00ZZ, got %q", got)
		}
	})

	t.Run("ShortTransactionID", func(t *testing.T) {
		got := Generate([]string{"plan"}, "a1", date)
		if got != "PL-090226-A1" {
			t.Errorf("expected PL-090226-A1, got %q", got)
		}
	})

	t.Run("UnknownTypeIsGeneric", func(t *testing.T) {
		got := Generate([]string{"mystery"}, "tx_ab12", date)
		if got != "MX-090226-AB12" {
			t.Errorf("expected MX-090226-AB12, got %q", got)
		}
	})
}
