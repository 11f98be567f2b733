package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Quote holds unrounded amounts; only the String helpers round.
type Quote struct {
	Subtotal          decimal.Decimal
	ThresholdDiscount decimal.Decimal
	CouponDiscount    decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	Tier              *Tier
	Coupon            *Coupon
}

// Compute prices lines under the given tiers and optional coupon. The tier and
// coupon discounts never stack: the larger of the two applies.
func Compute(lines []Line, tiers []Tier, coupon *Coupon) Quote {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	q := Quote{
		Subtotal:          subtotal,
		ThresholdDiscount: decimal.Zero,
		CouponDiscount:    decimal.Zero,
	}
	if t, ok := BestTier(tiers, subtotal); ok {
		q.Tier = &t
		q.ThresholdDiscount = percentOf(subtotal, t.Percent)
	}
	if coupon != nil {
		c := *coupon
		q.Coupon = &c
		if c.Active {
			q.CouponDiscount = percentOf(subtotal, c.Percent)
		}
	}

	q.Discount = decimal.Max(q.ThresholdDiscount, q.CouponDiscount)
	if q.Discount.GreaterThan(subtotal) {
		q.Discount = subtotal
	}
	q.Total = subtotal.Sub(q.Discount)
	return q
}

func percentOf(amount decimal.Decimal, percent int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
}

func (q Quote) SubtotalString() string { return q.Subtotal.StringFixed(2) }
func (q Quote) DiscountString() string { return q.Discount.StringFixed(2) }
func (q Quote) TotalString() string    { return q.Total.StringFixed(2) }

// TierMessage advertises the qualifying tier, or returns "" when none does.
func (q Quote) TierMessage() string {
	if q.Tier == nil {
		return ""
	}
	return fmt.Sprintf("You're eligible for %d%% off on orders over $%s!", q.Tier.Percent, q.Tier.Threshold.String())
}

// CouponMessage describes the applied coupon, or returns "" without one.
func (q Quote) CouponMessage() string {
	if q.Coupon == nil {
		return ""
	}
	return fmt.Sprintf("Coupon %q applied: %d%% off", q.Coupon.Code, q.Coupon.Percent)
}
