package domain

import (
	"fmt"
	"slices"
	"strings"
)

type SortOrder string

const (
	SortName      SortOrder = "name"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

func ParseSort(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortName:
		return SortName, nil
	case SortPriceAsc, SortPriceDesc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

type Query struct {
	Search   string
	Category string
	Sort     SortOrder
}

type Catalog struct {
	items []Item
	byID  map[int]int
}

func New(items ...Item) (*Catalog, error) {
	c := &Catalog{items: make([]Item, 0, len(items)), byID: make(map[int]int, len(items))}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateItem, it.ID)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativePrice, it.Name)
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

func (c *Catalog) Item(id int) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Items() []Item {
	return slices.Clone(c.items)
}

// Categories lists distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}

func (c *Catalog) Find(q Query) []Item {
	search := strings.ToLower(q.Search)
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		if search != "" && !strings.Contains(strings.ToLower(it.Name), search) {
			continue
		}
		if q.Category != "" && it.Category != q.Category {
			continue
		}
		out = append(out, it)
	}

	byName := func(a, b Item) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Item) int {
			if d := a.Price.Cmp(b.Price); d != 0 {
				return d
			}
			return byName(a, b)
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Item) int {
			if d := b.Price.Cmp(a.Price); d != 0 {
				return d
			}
			return byName(a, b)
		})
	default:
		slices.SortStableFunc(out, byName)
	}
	return out
}
