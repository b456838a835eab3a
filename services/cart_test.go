package services

import (
	"testing"

	"dinein-telegram/models"
)

func item(id, name string, price models.Paise) models.MenuItem {
	return models.MenuItem{ID: id, Name: name, Price: price, Available: true}
}

func TestCartAddKeepsOneLinePerItem(t *testing.T) {
	c := NewCart()
	tea := item("a", "Tea", 1000)
	samosa := item("b", "Samosa", 1500)

	c.Add(tea)
	c.Add(samosa)
	c.Add(tea)
	c.Add(tea)

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].ID != "a" || lines[0].Qty != 3 {
		t.Errorf("first line = %+v, want id a qty 3", lines[0])
	}
	if lines[1].ID != "b" || lines[1].Qty != 1 {
		t.Errorf("second line = %+v, want id b qty 1", lines[1])
	}
}

func TestCartCapturesPriceAtAddTime(t *testing.T) {
	c := NewCart()
	tea := item("a", "Tea", 1000)
	c.Add(tea)

	// A later menu price change must not move the line.
	tea.Price = 9900
	c.Add(tea)

	lines := c.Lines()
	if lines[0].Price != 1000 {
		t.Errorf("line price = %d, want the price captured on first add (1000)", lines[0].Price)
	}
	if got := c.Total(); got != 2000 {
		t.Errorf("Total() = %d, want 2000", got)
	}
}

func TestCartSetQuantity(t *testing.T) {
	c := NewCart()
	c.Add(item("a", "Tea", 1000))
	c.Add(item("b", "Samosa", 1500))

	c.SetQuantity("a", 5)
	if got := c.Total(); got != 6500 {
		t.Errorf("Total() = %d, want 6500", got)
	}

	c.SetQuantity("a", 0)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d after removing a, want 1", c.Len())
	}
	if got := c.Total(); got != 1500 {
		t.Errorf("Total() = %d after removal, want 1500", got)
	}

	c.SetQuantity("b", -3)
	if c.Len() != 0 {
		t.Errorf("Len() = %d after negative qty, want 0", c.Len())
	}
}

func TestCartSetQuantityUnknownIsNoop(t *testing.T) {
	c := NewCart()
	c.Add(item("a", "Tea", 1000))
	c.SetQuantity("ghost", 7)

	lines := c.Lines()
	if len(lines) != 1 || lines[0].ID != "a" || lines[0].Qty != 1 {
		t.Errorf("cart changed by unknown id: %+v", lines)
	}
}

func TestCartTotalEmpty(t *testing.T) {
	c := NewCart()
	if got := c.Total(); got != 0 {
		t.Errorf("Total() on empty cart = %d, want 0", got)
	}
}

func TestCartClear(t *testing.T) {
	c := NewCart()
	c.Add(item("a", "Tea", 1000))
	c.Clear()
	if c.Len() != 0 || c.Total() != 0 {
		t.Errorf("cart not empty after Clear: len=%d total=%d", c.Len(), c.Total())
	}
}

func TestCartSubmission(t *testing.T) {
	c := NewCart()
	c.Add(item("a", "Tea", 1000))
	c.Add(item("a", "Tea", 1000))
	c.Add(item("b", "Samosa", 1500))

	sub := c.Submission("5")
	if sub.TableID != "5" {
		t.Errorf("TableID = %q, want 5", sub.TableID)
	}
	if sub.PaymentMethod != models.PaymentMethodOnline {
		t.Errorf("PaymentMethod = %q, want %q", sub.PaymentMethod, models.PaymentMethodOnline)
	}
	want := []models.OrderLine{{ItemID: "a", Quantity: 2}, {ItemID: "b", Quantity: 1}}
	if len(sub.Items) != len(want) {
		t.Fatalf("items = %d, want %d", len(sub.Items), len(want))
	}
	for i, w := range want {
		if sub.Items[i] != w {
			t.Errorf("item[%d] = %+v, want %+v", i, sub.Items[i], w)
		}
	}
}
