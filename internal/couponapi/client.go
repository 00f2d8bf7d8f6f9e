package couponapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// ErrCouponRejected is returned when the backend refuses a coupon. The wrapped
// message is the backend's explanation and is safe to show to shoppers.
var ErrCouponRejected = errors.New("coupon rejected")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type validateRequest struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

// validateResponse mirrors the backend payload. Depending on the endpoint
// version discount_amount and final_amount may be missing.
type validateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Coupon  *struct {
		Code          string              `json:"code"`
		DiscountType  domain.DiscountType `json:"discount_type"`
		DiscountValue decimal.Decimal     `json:"discount_value"`
	} `json:"coupon"`
	DiscountAmount decimal.NullDecimal `json:"discount_amount"`
	FinalAmount    decimal.NullDecimal `json:"final_amount"`
}

func (c *Client) Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*domain.AppliedCoupon, error) {
	data, err := json.Marshal(validateRequest{Code: code, CartTotal: cartTotal})
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/coupons/validate", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate coupon %s: %w", code, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read validate response: %w", err)
	}

	var out validateResponse
	decodeErr := json.Unmarshal(body, &out)

	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	switch {
	case success && decodeErr == nil:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && decodeErr == nil && out.Message != "":
		return nil, fmt.Errorf("%w: %s", ErrCouponRejected, out.Message)
	case success:
		return nil, fmt.Errorf("decode validate response (status %d): %w", resp.StatusCode, decodeErr)
	default:
		return nil, fmt.Errorf("coupon service returned status %d", resp.StatusCode)
	}

	if !out.Valid || out.Coupon == nil {
		msg := out.Message
		if msg == "" {
			msg = "invalid coupon code"
		}
		return nil, fmt.Errorf("%w: %s", ErrCouponRejected, msg)
	}

	return &domain.AppliedCoupon{
		Code:           out.Coupon.Code,
		DiscountType:   out.Coupon.DiscountType,
		DiscountValue:  out.Coupon.DiscountValue,
		DiscountAmount: out.DiscountAmount,
		FinalAmount:    out.FinalAmount,
	}, nil
}

// RejectionMessage extracts the backend's explanation from an error returned
// by Validate.
func RejectionMessage(err error) string {
	if !errors.Is(err, ErrCouponRejected) {
		return ""
	}
	return strings.TrimPrefix(err.Error(), ErrCouponRejected.Error()+": ")
}
