package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPercentRange         = errors.New("percentage must be 0-100")
	ErrNegativeThreshold    = errors.New("threshold must not be negative")
	ErrInvalidCoupon        = errors.New("invalid or expired coupon code")
	ErrCouponCodeRequired   = errors.New("coupon code is required")
)

// Shopper-facing coupon results.
const (
	MsgCouponApplied = "Coupon applied successfully!"
	MsgCouponInvalid = "Invalid or expired coupon code"
)

type Coupon struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
	Active  bool   `json:"active"`
}

func NewCoupon(code string, percent int, active bool) (Coupon, error) {
	if percent < 0 || percent > 100 {
		return Coupon{}, fmt.Errorf("%w: %s=%d", ErrPercentRange, code, percent)
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Coupon{}, ErrCouponCodeRequired
	}
	return Coupon{Code: code, Percent: percent, Active: active}, nil
}

func (c Coupon) Status() string {
	if c.Active {
		return "Active"
	}
	return "Expired"
}

// CouponBook is the fixed set of codes a shopper may redeem.
type CouponBook struct {
	coupons []Coupon
}

func NewCouponBook(coupons ...Coupon) *CouponBook {
	return &CouponBook{coupons: coupons}
}

func DefaultCoupons() *CouponBook {
	return NewCouponBook(
		Coupon{Code: "WELCOME10", Percent: 10, Active: true},
		Coupon{Code: "SPECIAL20", Percent: 20, Active: true},
		Coupon{Code: "SUMMER15", Percent: 15, Active: true},
	)
}

// Lookup matches code case-insensitively against active coupons only.
func (b *CouponBook) Lookup(code string) (Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Coupon{}, ErrCouponCodeRequired
	}
	for _, c := range b.coupons {
		if c.Code == code && c.Active {
			return c, nil
		}
	}
	return Coupon{}, ErrInvalidCoupon
}

func (b *CouponBook) All() []Coupon {
	out := make([]Coupon, len(b.coupons))
	copy(out, b.coupons)
	return out
}
