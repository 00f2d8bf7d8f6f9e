package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/compare"
	"github.com/joao-fontenele/storefront/internal/couponapi"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/kvstore"
	"github.com/joao-fontenele/storefront/internal/pricing"
)

const SessionHeader = "X-Session-ID"

type CouponValidator interface {
	Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*domain.AppliedCoupon, error)
}

type Recorder interface {
	compare.Recorder
	RecordCartTotal(ctx context.Context, total float64, couponApplied bool)
}

type Handler struct {
	calculator *pricing.Calculator
	coupons    CouponValidator
	store      kvstore.Store
	publisher  compare.Publisher
	recorder   Recorder
	logger     *slog.Logger
}

// NewHandler wires the storefront endpoints. coupons, publisher and recorder
// may be nil; coupon validation then answers 503.
func NewHandler(
	calculator *pricing.Calculator,
	coupons CouponValidator,
	store kvstore.Store,
	publisher compare.Publisher,
	recorder Recorder,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		calculator: calculator,
		coupons:    coupons,
		store:      store,
		publisher:  publisher,
		recorder:   recorder,
		logger:     logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}

	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("POST /sessions", wrap(h.HandleCreateSession))
	mux.HandleFunc("POST /cart/summary", wrap(h.HandleCartSummary))
	mux.HandleFunc("POST /cart/coupon", wrap(h.HandleApplyCoupon))
	mux.HandleFunc("GET /compare", wrap(h.HandleGetCompare))
	mux.HandleFunc("POST /compare/items", wrap(h.HandleAddCompare))
	mux.HandleFunc("DELETE /compare/items/{productId}", wrap(h.HandleRemoveCompare))
	mux.HandleFunc("DELETE /compare", wrap(h.HandleClearCompare))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	h.logger.Info("session created", "session_id", id)
	h.writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id})
}

type cartSummaryRequest struct {
	Items  []domain.CartLineItem `json:"items"`
	Coupon *domain.AppliedCoupon `json:"coupon"`
}

func (h *Handler) HandleCartSummary(w http.ResponseWriter, r *http.Request) {
	var req cartSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateItems(req.Items); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	summary := h.calculator.Summarize(req.Items, req.Coupon)
	h.recordTotal(r.Context(), summary)

	h.logger.Info("cart summarized", "items", len(req.Items), "total", summary.Total.String())
	h.writeJSON(w, http.StatusOK, summary)
}

type applyCouponRequest struct {
	Code  string                `json:"code"`
	Items []domain.CartLineItem `json:"items"`
}

type applyCouponResponse struct {
	Coupon  *domain.AppliedCoupon `json:"coupon"`
	Summary domain.CartSummary    `json:"summary"`
}

func (h *Handler) HandleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "missing coupon code")
		return
	}

	if msg := validateItems(req.Items); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	if h.coupons == nil {
		h.writeError(w, http.StatusServiceUnavailable, "coupons unavailable")
		return
	}

	subtotal := h.calculator.Subtotal(req.Items)
	coupon, err := h.coupons.Validate(r.Context(), req.Code, subtotal)
	if err != nil {
		if errors.Is(err, couponapi.ErrCouponRejected) {
			h.logger.Info("coupon rejected", "code", req.Code, "reason", couponapi.RejectionMessage(err))
			h.writeError(w, http.StatusUnprocessableEntity, couponapi.RejectionMessage(err))
			return
		}
		h.logger.Error("failed to validate coupon", "error", err, "code", req.Code)
		h.writeError(w, http.StatusBadGateway, "coupon service unavailable")
		return
	}

	summary := h.calculator.Summarize(req.Items, coupon)
	h.recordTotal(r.Context(), summary)

	h.logger.Info("coupon applied", "code", coupon.Code, "discount", summary.Discount.String())
	h.writeJSON(w, http.StatusOK, applyCouponResponse{Coupon: coupon, Summary: summary})
}

func (h *Handler) HandleGetCompare(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.compareManager(w, r)
	if !ok {
		return
	}

	h.writeJSON(w, http.StatusOK, manager.Snapshot(r.Context()))
}

type addCompareRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *Handler) HandleAddCompare(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.compareManager(w, r)
	if !ok {
		return
	}

	var req addCompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	h.writeResult(w, manager.Add(r.Context(), req.ProductID))
}

func (h *Handler) HandleRemoveCompare(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.compareManager(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(r.PathValue("productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	h.writeResult(w, manager.Remove(r.Context(), productID))
}

func (h *Handler) HandleClearCompare(w http.ResponseWriter, r *http.Request) {
	manager, ok := h.compareManager(w, r)
	if !ok {
		return
	}

	h.writeResult(w, manager.Clear(r.Context()))
}

func (h *Handler) compareManager(w http.ResponseWriter, r *http.Request) (*compare.Manager, bool) {
	raw := r.Header.Get(SessionHeader)
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return nil, false
	}

	sessionID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}

	scope := sessionID.String()
	opts := []compare.Option{
		compare.WithScope(scope),
		compare.WithLogger(h.logger.With("session_id", scope)),
	}
	if h.recorder != nil {
		opts = append(opts, compare.WithRecorder(h.recorder))
	}

	store := kvstore.WithPrefix(h.store, kvstore.SessionPrefix(scope))
	return compare.NewManager(store, h.publisher, opts...), true
}

func (h *Handler) writeResult(w http.ResponseWriter, result compare.Result) {
	status := http.StatusOK
	switch result.Reason {
	case compare.ReasonAlreadyInList, compare.ReasonListFull:
		status = http.StatusConflict
	case compare.ReasonStoreUnavailable:
		status = http.StatusServiceUnavailable
	}

	h.logger.Info("compare list updated", "success", result.Success, "reason", result.Reason, "count", result.Count)
	h.writeJSON(w, status, result)
}

func (h *Handler) recordTotal(ctx context.Context, summary domain.CartSummary) {
	if h.recorder == nil {
		return
	}
	total, _ := summary.Total.Float64()
	h.recorder.RecordCartTotal(ctx, total, summary.Coupon != nil)
}

func validateItems(items []domain.CartLineItem) string {
	for _, item := range items {
		if item.UnitPrice.IsNegative() {
			return "unit price must not be negative"
		}
		if item.Quantity < 1 {
			return "quantity must be at least 1"
		}
	}
	return ""
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
