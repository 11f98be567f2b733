package domain

import (
	"time"

	catalog "github.com/dmehra2102/grocery-cart/internal/catalog/domain"
)

type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
)

// ActionRecord captures one cart mutation with the quantity held before it.
type ActionRecord struct {
	Kind             ActionKind
	Item             catalog.Item
	PreviousQuantity int
	At               time.Time
}

// Inverse is the single-unit step that reverses the record's direction.
func (r ActionRecord) Inverse() int {
	if r.Kind == ActionAdd {
		return -1
	}
	return 1
}

// History is append-only, but only its most recent record can be undone.
type History struct {
	records []ActionRecord
}

func (h *History) Record(r ActionRecord) {
	h.records = append(h.records, r)
}

func (h *History) Last() (ActionRecord, bool) {
	if len(h.records) == 0 {
		return ActionRecord{}, false
	}
	return h.records[len(h.records)-1], true
}

func (h *History) Len() int { return len(h.records) }

func (h *History) Clear() {
	h.records = nil
}
