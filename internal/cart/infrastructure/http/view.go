package http

import (
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/grocery-cart/internal/cart/application"
	"github.com/dmehra2102/grocery-cart/internal/notify"
)

type entryResp struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type couponResp struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

type viewResp struct {
	SessionID         string          `json:"session_id"`
	Items             []entryResp     `json:"items"`
	Subtotal          string          `json:"subtotal"`
	ThresholdDiscount string          `json:"threshold_discount"`
	CouponDiscount    string          `json:"coupon_discount"`
	Discount          string          `json:"discount"`
	Total             string          `json:"total"`
	TierMessage       string          `json:"tier_message,omitempty"`
	Coupon            *couponResp     `json:"coupon,omitempty"`
	CanUndo           bool            `json:"can_undo"`
	Notices           []notify.Notice `json:"notices"`
}

func toViewResp(v application.View) viewResp {
	items := make([]entryResp, 0, len(v.Entries))
	for _, e := range v.Entries {
		items = append(items, entryResp{
			ID:        e.Item.ID,
			Name:      e.Item.Name,
			Price:     e.Item.Price.StringFixed(2),
			Category:  e.Item.Category,
			Quantity:  e.Quantity,
			LineTotal: e.Item.Price.Mul(decimal.NewFromInt(int64(e.Quantity))).StringFixed(2),
		})
	}
	notices := v.Notices
	if notices == nil {
		notices = []notify.Notice{}
	}
	resp := viewResp{
		SessionID:         v.SessionID,
		Items:             items,
		Subtotal:          v.Quote.SubtotalString(),
		ThresholdDiscount: v.Quote.ThresholdDiscount.StringFixed(2),
		CouponDiscount:    v.Quote.CouponDiscount.StringFixed(2),
		Discount:          v.Quote.DiscountString(),
		Total:             v.Quote.TotalString(),
		TierMessage:       v.Quote.TierMessage(),
		CanUndo:           v.CanUndo,
		Notices:           notices,
	}
	if v.Coupon != nil {
		resp.Coupon = &couponResp{Code: v.Coupon.Code, Percent: v.Coupon.Percent, Message: v.Quote.CouponMessage()}
	}
	return resp
}
