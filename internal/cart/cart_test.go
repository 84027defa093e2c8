package cart

import (
	"testing"
)

func TestCart_AddItem(t *testing.T) {
	beat := Item{ID: "beat-1", Type: TypeLicense, Title: "Cumbia 92", ProducerID: "prod-1", PriceCents: 49900}

	t.Run("DuplicateID", func(t *testing.T) {
		var c Cart
		if err := c.AddItem(beat, "buyer-1"); err != nil {
			t.Fatalf("first AddItem failed: %v", err)
		}

		dup := beat
		dup.Title = "Renamed but same id"
		if err := c.AddItem(dup, "buyer-1"); err != ErrDuplicateItem {
			t.Errorf("expected ErrDuplicateItem, got %v", err)
		}
		if len(c.Items) != 1 {
			t.Errorf("expected 1 item, got %d", len(c.Items))
		}
		if c.Items[0].Title != "Cumbia 92" {
			t.Errorf("first item should win, got %q", c.Items[0].Title)
		}
	})

	t.Run("OwnProduct", func(t *testing.T) {
		var c Cart
		if err := c.AddItem(beat, "prod-1"); err != ErrOwnItem {
			t.Errorf("expected ErrOwnItem, got %v", err)
		}
		if len(c.Items) != 0 {
			t.Errorf("cart should stay empty, got %d items", len(c.Items))
		}
	})

	t.Run("OwnProductAnonymous", func(t *testing.T) {
		// Anonymous shoppers have no session user, so the rule cannot fire.
		var c Cart
		if err := c.AddItem(beat, ""); err != nil {
			t.Errorf("anonymous add should succeed, got %v", err)
		}
	})

	t.Run("SecondPlan", func(t *testing.T) {
		var c Cart
		pro := Item{ID: "plan-pro", Type: TypePlan, Title: "Plan Pro", PriceCents: 19900}
		premium := Item{ID: "plan-premium", Type: TypePlan, Title: "Plan Premium", PriceCents: 39900}

		if err := c.AddItem(pro, "buyer-1"); err != nil {
			t.Fatalf("first plan add failed: %v", err)
		}
		if err := c.AddItem(premium, "buyer-1"); err != ErrPlanInCart {
			t.Errorf("expected ErrPlanInCart, got %v", err)
		}
		if len(c.Items) != 1 {
			t.Errorf("expected 1 item, got %d", len(c.Items))
		}

		// A non-plan item is still welcome.
		if err := c.AddItem(beat, "buyer-1"); err != nil {
			t.Errorf("mixed add should succeed, got %v", err)
		}
	})
}

func TestCart_RemoveAndClear(t *testing.T) {
	var c Cart
	c.AddItem(Item{ID: "a", Type: TypeLicense, ProducerID: "p1", PriceCents: 100}, "")
	c.AddItem(Item{ID: "b", Type: TypeSoundKit, ProducerID: "p2", PriceCents: 200}, "")

	c.RemoveItem("a")
	if len(c.Items) != 1 || c.Items[0].ID != "b" {
		t.Errorf("unexpected items after remove: %+v", c.Items)
	}

	// Removing an absent id is a no-op.
	c.RemoveItem("nope")
	if len(c.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(c.Items))
	}

	c.Clear()
	if len(c.Items) != 0 {
		t.Errorf("expected empty cart after Clear, got %d", len(c.Items))
	}
}

func TestCart_TotalAndTypes(t *testing.T) {
	var c Cart
	c.AddItem(Item{ID: "a", Type: TypeLicense, PriceCents: 49900}, "")
	c.AddItem(Item{ID: "b", Type: TypeSoundKit, PriceCents: 25000}, "")
	c.AddItem(Item{ID: "c", Type: TypeLicense, PriceCents: 89900}, "")

	if got := c.TotalCents(); got != 164800 {
		t.Errorf("expected total 164800, got %d", got)
	}

	types := c.ProductTypes()
	if len(types) != 2 || types[0] != TypeLicense || types[1] != TypeSoundKit {
		t.Errorf("unexpected distinct types: %v", types)
	}
}
