package domain

import (
	"errors"

	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
	pricing "github.com/dmehra2102/grocery-cart/internal/pricing/domain"
)

var (
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrInvalidQuantity = errors.New("quantity must be a whole number")
)

// Entry pairs an item snapshot with a quantity that is always at least one.
type Entry struct {
	Item     catalog.Item
	Quantity int
}

// Cart keeps entries in the order they were first added.
type Cart struct {
	entries []Entry
}

func NewCart() *Cart {
	return &Cart{}
}

// SetQuantity stores n units of item, dropping the entry when n <= 0.
// It returns the quantity held before the change.
func (c *Cart) SetQuantity(item catalog.Item, n int) int {
	i := c.index(item.ID)
	prev := 0
	if i >= 0 {
		prev = c.entries[i].Quantity
	}

	switch {
	case n <= 0 && i >= 0:
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	case n <= 0:
	case i >= 0:
		c.entries[i].Quantity = n
	default:
		c.entries = append(c.entries, Entry{Item: item, Quantity: n})
	}
	return prev
}

func (c *Cart) Quantity(itemID int) int {
	if i := c.index(itemID); i >= 0 {
		return c.entries[i].Quantity
	}
	return 0
}

// Entry returns the stored entry for itemID, including the item snapshot.
func (c *Cart) Entry(itemID int) (Entry, bool) {
	if i := c.index(itemID); i >= 0 {
		return c.entries[i], true
	}
	return Entry{}, false
}

func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.entries))
	for _, e := range c.entries {
		lines = append(lines, pricing.Line{Price: e.Item.Price, Quantity: e.Quantity})
	}
	return lines
}

func (c *Cart) Clone() *Cart {
	return &Cart{entries: c.Entries()}
}

func (c *Cart) Len() int { return len(c.entries) }

// Units counts every unit across entries.
func (c *Cart) Units() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

func (c *Cart) Clear() {
	c.entries = nil
}

func (c *Cart) index(itemID int) int {
	for i, e := range c.entries {
		if e.Item.ID == itemID {
			return i
		}
	}
	return -1
}
