package features

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/grocery-cart/internal/pricing/domain"
)

type pricingTestContext struct {
	tiers     []domain.Tier
	book      *domain.CouponBook
	lines     []domain.Line
	coupon    *domain.Coupon
	couponErr error
	quote     domain.Quote
}

func (c *pricingTestContext) reset() {
	*c = pricingTestContext{}
}

func (c *pricingTestContext) theDefaultDiscountTiers() error {
	c.tiers = domain.DefaultTiers()
	return nil
}

func (c *pricingTestContext) theDefaultCouponBook() error {
	c.book = domain.DefaultCoupons()
	return nil
}

func (c *pricingTestContext) theTiers(table *godog.Table) error {
	c.tiers = nil
	for _, row := range table.Rows[1:] {
		pct, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}
		tier, err := domain.NewTier(row.Cells[0].Value, pct)
		if err != nil {
			return err
		}
		c.tiers = append(c.tiers, tier)
	}
	return nil
}

func (c *pricingTestContext) aCartLineOfAt(qty int, price string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, domain.Line{Price: p, Quantity: qty})
	return nil
}

func (c *pricingTestContext) theCouponIsApplied(code string) error {
	coupon, err := c.book.Lookup(code)
	if err != nil {
		c.couponErr = err
		return nil
	}
	c.coupon = &coupon
	return nil
}

func (c *pricingTestContext) theCartIsPriced() error {
	c.quote = domain.Compute(c.lines, c.tiers, c.coupon)
	return nil
}

func expectAmount(field, want string, got decimal.Decimal) error {
	if s := got.StringFixed(2); s != want {
		return fmt.Errorf("expected %s %s, got %s", field, want, s)
	}
	return nil
}

func (c *pricingTestContext) theSubtotalIs(want string) error {
	return expectAmount("subtotal", want, c.quote.Subtotal)
}

func (c *pricingTestContext) theTotalIs(want string) error {
	return expectAmount("total", want, c.quote.Total)
}

func (c *pricingTestContext) theCouponDiscountIs(want string) error {
	return expectAmount("coupon discount", want, c.quote.CouponDiscount)
}

func (c *pricingTestContext) theThresholdDiscountIs(want string) error {
	return expectAmount("threshold discount", want, c.quote.ThresholdDiscount)
}

func (c *pricingTestContext) theTierPercentageIs(want int) error {
	if c.quote.Tier == nil {
		return fmt.Errorf("expected tier %d%%, none applied", want)
	}
	if c.quote.Tier.Percent != want {
		return fmt.Errorf("expected tier %d%%, got %d%%", want, c.quote.Tier.Percent)
	}
	return nil
}

func (c *pricingTestContext) noTierApplies() error {
	if c.quote.Tier != nil {
		return fmt.Errorf("expected no tier, got %d%%", c.quote.Tier.Percent)
	}
	return nil
}

func (c *pricingTestContext) theCouponIsRejectedWith(msg string) error {
	if c.couponErr == nil {
		return fmt.Errorf("expected coupon rejection, coupon %v was accepted", c.coupon)
	}
	if c.couponErr.Error() != msg {
		return fmt.Errorf("expected %q, got %q", msg, c.couponErr.Error())
	}
	if c.coupon != nil {
		return fmt.Errorf("rejected coupon changed state")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the default discount tiers$`, tc.theDefaultDiscountTiers)
	ctx.Step(`^the default coupon book$`, tc.theDefaultCouponBook)
	ctx.Step(`^the tiers:$`, tc.theTiers)
	ctx.Step(`^a cart line of (\d+) at (\d+\.\d+)$`, tc.aCartLineOfAt)
	ctx.Step(`^the coupon "([^"]*)" is applied$`, tc.theCouponIsApplied)
	ctx.Step(`^the cart is priced$`, tc.theCartIsPriced)

	ctx.Step(`^the subtotal is "([^"]*)"$`, tc.theSubtotalIs)
	ctx.Step(`^the total is "([^"]*)"$`, tc.theTotalIs)
	ctx.Step(`^the coupon discount is "([^"]*)"$`, tc.theCouponDiscountIs)
	ctx.Step(`^the threshold discount is "([^"]*)"$`, tc.theThresholdDiscountIs)
	ctx.Step(`^the tier percentage is (\d+)$`, tc.theTierPercentageIs)
	ctx.Step(`^no tier applies$`, tc.noTierApplies)
	ctx.Step(`^the coupon is rejected with "([^"]*)"$`, tc.theCouponIsRejectedWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"pricing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
