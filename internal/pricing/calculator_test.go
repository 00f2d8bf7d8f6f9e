package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func sampleCart() []domain.CartLineItem {
	return []domain.CartLineItem{
		{ProductID: 1, UnitPrice: dec("500"), Quantity: 2},
		{ProductID: 2, UnitPrice: dec("1000"), Quantity: 1},
	}
}

func TestCalculator_Subtotal(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("empty cart", func(t *testing.T) {
		assertDecimal(t, "0", calc.Subtotal(nil))
	})

	t.Run("sums price times quantity", func(t *testing.T) {
		assertDecimal(t, "2000", calc.Subtotal(sampleCart()))
	})

	t.Run("keeps cents exact", func(t *testing.T) {
		items := []domain.CartLineItem{
			{ProductID: 1, UnitPrice: dec("0.1"), Quantity: 3},
			{ProductID: 2, UnitPrice: dec("19.99"), Quantity: 7},
		}
		assertDecimal(t, "140.23", calc.Subtotal(items))
	})
}

func TestCalculator_Shipping(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name     string
		subtotal string
		want     string
	}{
		{"zero subtotal", "0", "100"},
		{"below threshold", "2999.99", "100"},
		{"at threshold", "3000", "0"},
		{"above threshold", "3500", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, calc.Shipping(dec(tt.subtotal)))
		})
	}

	t.Run("uses configured flat fee", func(t *testing.T) {
		calc := NewCalculator(Config{
			FlatShippingFee:       dec("200"),
			FreeShippingThreshold: dec("3000"),
		})
		assertDecimal(t, "200", calc.Shipping(dec("10")))
	})
}

func TestCalculator_Discount(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("no coupon", func(t *testing.T) {
		assertDecimal(t, "0", calc.Discount(dec("2000"), nil))
	})

	t.Run("percentage coupon", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{Code: "TEN", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("10")}
		assertDecimal(t, "200", calc.Discount(dec("2000"), coupon))
	})

	t.Run("percentage coupon rounds to cents", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{Code: "ODD", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("15")}
		assertDecimal(t, "15.02", calc.Discount(dec("100.10"), coupon))
	})

	t.Run("fixed coupon", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{Code: "OFF300", DiscountType: domain.DiscountTypeFixed, DiscountValue: dec("300")}
		assertDecimal(t, "300", calc.Discount(dec("2000"), coupon))
	})

	t.Run("fixed coupon is capped at subtotal", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{Code: "BIG", DiscountType: domain.DiscountTypeFixed, DiscountValue: dec("5000")}
		assertDecimal(t, "2000", calc.Discount(dec("2000"), coupon))
	})

	t.Run("prefers server computed amount", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{
			Code:           "TEN",
			DiscountType:   domain.DiscountTypePercentage,
			DiscountValue:  dec("10"),
			DiscountAmount: decimal.NewNullDecimal(dec("150")),
		}
		assertDecimal(t, "150", calc.Discount(dec("2000"), coupon))
	})

	t.Run("server computed amount is capped at subtotal", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{
			Code:           "STALE",
			DiscountType:   domain.DiscountTypeFixed,
			DiscountValue:  dec("300"),
			DiscountAmount: decimal.NewNullDecimal(dec("300")),
		}
		assertDecimal(t, "120", calc.Discount(dec("120"), coupon))
	})

	t.Run("unknown discount type", func(t *testing.T) {
		coupon := &domain.AppliedCoupon{Code: "X", DiscountType: "bogo", DiscountValue: dec("50")}
		assertDecimal(t, "0", calc.Discount(dec("2000"), coupon))
	})
}

func TestCalculator_Summarize(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name     string
		items    []domain.CartLineItem
		coupon   *domain.AppliedCoupon
		subtotal string
		discount string
		shipping string
		total    string
	}{
		{
			name:     "no coupon",
			items:    sampleCart(),
			subtotal: "2000", discount: "0", shipping: "100", total: "2100",
		},
		{
			name:     "fixed coupon",
			items:    sampleCart(),
			coupon:   &domain.AppliedCoupon{Code: "OFF300", DiscountType: domain.DiscountTypeFixed, DiscountValue: dec("300")},
			subtotal: "2000", discount: "300", shipping: "100", total: "1800",
		},
		{
			name:     "percentage coupon",
			items:    sampleCart(),
			coupon:   &domain.AppliedCoupon{Code: "TEN", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("10")},
			subtotal: "2000", discount: "200", shipping: "100", total: "1900",
		},
		{
			name:     "free shipping regardless of coupon",
			items:    []domain.CartLineItem{{ProductID: 9, UnitPrice: dec("3500"), Quantity: 1}},
			coupon:   &domain.AppliedCoupon{Code: "TEN", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("10")},
			subtotal: "3500", discount: "350", shipping: "0", total: "3150",
		},
		{
			name:     "full percentage coupon leaves shipping",
			items:    sampleCart(),
			coupon:   &domain.AppliedCoupon{Code: "FREE", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("100")},
			subtotal: "2000", discount: "2000", shipping: "100", total: "100",
		},
		{
			name:     "empty cart",
			subtotal: "0", discount: "0", shipping: "100", total: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := calc.Summarize(tt.items, tt.coupon)

			assertDecimal(t, tt.subtotal, summary.Subtotal)
			assertDecimal(t, tt.discount, summary.Discount)
			assertDecimal(t, tt.shipping, summary.Shipping)
			assertDecimal(t, tt.total, summary.Total)
			assert.Equal(t, tt.coupon, summary.Coupon)
		})
	}
}

func TestCalculator_TotalNeverBelowShipping(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	coupons := []*domain.AppliedCoupon{
		nil,
		{Code: "P50", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("50")},
		{Code: "P150", DiscountType: domain.DiscountTypePercentage, DiscountValue: dec("150")},
		{Code: "F10", DiscountType: domain.DiscountTypeFixed, DiscountValue: dec("10")},
		{Code: "F99999", DiscountType: domain.DiscountTypeFixed, DiscountValue: dec("99999")},
	}

	for price := int64(0); price <= 4000; price += 250 {
		for qty := 1; qty <= 3; qty++ {
			items := []domain.CartLineItem{{ProductID: 1, UnitPrice: decimal.NewFromInt(price), Quantity: qty}}
			for _, coupon := range coupons {
				s := calc.Summarize(items, coupon)

				assert.True(t, s.Total.Equal(s.Subtotal.Sub(s.Discount).Add(s.Shipping)))
				assert.True(t, s.Discount.LessThanOrEqual(s.Subtotal))
				assert.True(t, s.Total.GreaterThanOrEqual(s.Shipping))
				assert.False(t, s.Shipping.IsNegative())
			}
		}
	}
}
