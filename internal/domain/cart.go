package domain

import "github.com/shopspring/decimal"

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type CartLineItem struct {
	ProductID int64           `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// AppliedCoupon is a coupon the backend has already validated. DiscountAmount
// and FinalAmount are only present when the backend endpoint computed them.
type AppliedCoupon struct {
	Code           string              `json:"code"`
	DiscountType   DiscountType        `json:"discount_type"`
	DiscountValue  decimal.Decimal     `json:"discount_value"`
	DiscountAmount decimal.NullDecimal `json:"discount_amount"`
	FinalAmount    decimal.NullDecimal `json:"final_amount"`
}

type CartSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Coupon   *AppliedCoupon  `json:"coupon,omitempty"`
}
