package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateItem = errors.New("duplicate item id")
	ErrNegativePrice = errors.New("item price must not be negative")
	ErrItemNotFound  = errors.New("item not found")
	ErrUnknownSort   = errors.New("unknown sort order")
)

type Item struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

func NewItem(id int, name, price, category string) Item {
	return Item{ID: id, Name: name, Price: decimal.RequireFromString(price), Category: category}
}

// Default is the storefront's seeded assortment.
func Default() *Catalog {
	return MustNew(
		NewItem(1, "Apples", "2.99", "Fruits"),
		NewItem(2, "Bananas", "1.99", "Fruits"),
		NewItem(3, "Milk", "3.99", "Dairy"),
		NewItem(4, "Bread", "2.49", "Bakery"),
		NewItem(5, "Eggs", "4.99", "Dairy"),
		NewItem(6, "Chicken", "8.99", "Meat"),
		NewItem(7, "Rice", "5.99", "Grains"),
		NewItem(8, "Tomatoes", "1.49", "Vegetables"),
	)
}

// MustNew is New for fixed seed data; it panics on an invalid assortment.
func MustNew(items ...Item) *Catalog {
	c, err := New(items...)
	if err != nil {
		panic(fmt.Sprintf("catalog seed: %v", err))
	}
	return c
}
