package services

import (
	"sync"

	"dinein-telegram/models"
)

// CartLine is one row of the cart: one distinct menu item and its
// requested quantity. Name and price are captured when the item is
// first added, so a later menu change cannot move a diner's total.
type CartLine struct {
	ID    string
	Name  string
	Price models.Paise
	Qty   int
}

// Cart is the in-memory order ledger of one chat session. A line with
// quantity zero is removed, never stored. The mutex covers interleaving
// between keyboard callbacks and an in-flight checkout.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

// Add increments the item's line, inserting it with quantity 1 on first add.
func (c *Cart) Add(item models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID == item.ID {
			c.lines[i].Qty++
			return
		}
	}
	c.lines = append(c.lines, CartLine{ID: item.ID, Name: item.Name, Price: item.Price, Qty: 1})
}

// SetQuantity replaces the line's quantity; qty <= 0 removes the line.
// An unknown id is a no-op.
func (c *Cart) SetQuantity(itemID string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ID != itemID {
			continue
		}
		if qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Qty = qty
		}
		return
	}
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Total recomputes the sum of price × quantity on every call.
func (c *Cart) Total() models.Paise {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total models.Paise
	for _, l := range c.lines {
		total += l.Price * models.Paise(l.Qty)
	}
	return total
}

// Clear empties the cart. Called only after a fully confirmed order.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Submission builds the order request for the given table from the
// current lines. One line per item id, so no deduplication is needed.
func (c *Cart) Submission(tableID string) models.OrderSubmission {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]models.OrderLine, len(c.lines))
	for i, l := range c.lines {
		items[i] = models.OrderLine{ItemID: l.ID, Quantity: l.Qty}
	}
	return models.OrderSubmission{
		TableID:       tableID,
		Items:         items,
		PaymentMethod: models.PaymentMethodOnline,
	}
}
