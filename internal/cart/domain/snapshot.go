package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
)

// SnapshotKey names the persisted cart; stores namespace it per session.
const SnapshotKey = "cartItems"

type snapshotEntry struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category"`
}

// EncodeSnapshot writes the whole cart as a JSON array. Prices are JSON
// numbers so the snapshot stays readable by plain JSON clients.
func EncodeSnapshot(c *Cart) ([]byte, error) {
	out := make([]snapshotEntry, 0, c.Len())
	for _, e := range c.entries {
		out = append(out, snapshotEntry{
			ID:       e.Item.ID,
			Name:     e.Item.Name,
			Price:    json.RawMessage(e.Item.Price.String()),
			Quantity: e.Quantity,
			Category: e.Item.Category,
		})
	}
	return json.Marshal(out)
}

// DecodeSnapshot rebuilds a cart. Entries with a non-positive quantity are
// dropped and a repeated id keeps its last occurrence.
func DecodeSnapshot(data []byte) (*Cart, error) {
	var raw []snapshotEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	c := NewCart()
	for _, r := range raw {
		var price decimal.Decimal
		if len(r.Price) > 0 {
			if err := price.UnmarshalJSON(r.Price); err != nil {
				return nil, err
			}
		}
		if price.IsNegative() {
			continue
		}
		item := catalog.Item{ID: r.ID, Name: r.Name, Price: price, Category: r.Category}
		c.SetQuantity(item, r.Quantity)
	}
	return c, nil
}

// LoadSnapshot never fails: missing or malformed data yields an empty cart.
func LoadSnapshot(data []byte) (*Cart, bool) {
	if len(data) == 0 {
		return NewCart(), true
	}
	c, err := DecodeSnapshot(data)
	if err != nil {
		return NewCart(), false
	}
	return c, true
}
