package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const roundPlaces = 2

var hundred = decimal.NewFromInt(100)

type Config struct {
	FlatShippingFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		FlatShippingFee:       decimal.NewFromInt(100),
		FreeShippingThreshold: decimal.NewFromInt(3000),
	}
}

// Calculator derives cart totals from line items and an optional coupon.
// It holds no state besides its configuration and is safe for concurrent use.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

func (c *Calculator) Subtotal(items []domain.CartLineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal.Round(roundPlaces)
}

func (c *Calculator) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(c.cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return c.cfg.FlatShippingFee.Round(roundPlaces)
}

// Discount prefers the backend-computed amount and falls back to applying the
// coupon locally. The result never exceeds the subtotal.
func (c *Calculator) Discount(subtotal decimal.Decimal, coupon *domain.AppliedCoupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch {
	case coupon.DiscountAmount.Valid:
		discount = coupon.DiscountAmount.Decimal
	case coupon.DiscountType == domain.DiscountTypePercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(hundred)
	case coupon.DiscountType == domain.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, subtotal).Round(roundPlaces)
}

func (c *Calculator) Total(subtotal, discount, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(shipping).Round(roundPlaces)
}

func (c *Calculator) Summarize(items []domain.CartLineItem, coupon *domain.AppliedCoupon) domain.CartSummary {
	subtotal := c.Subtotal(items)
	discount := c.Discount(subtotal, coupon)
	shipping := c.Shipping(subtotal)

	return domain.CartSummary{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Total:    c.Total(subtotal, discount, shipping),
		Coupon:   coupon,
	}
}
