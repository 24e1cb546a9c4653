package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/debt"
)

// DebtServiceInterface defines the interface for debt reconciliation
type DebtServiceInterface interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, total decimal.Decimal) (*debt.Order, error)
	OrderDebt(ctx context.Context, orderID uuid.UUID) (*debt.OrderDebt, error)
	OrderPayments(ctx context.Context, orderID uuid.UUID) (*debt.OrderPayments, error)
	CreateWorkshopJob(ctx context.Context, workshopID uuid.UUID, amount, discount decimal.Decimal) (*debt.WorkshopJob, error)
	WorkshopJobDebt(ctx context.Context, jobID uuid.UUID) (*debt.JobDebt, error)
	JobPayments(ctx context.Context, jobID uuid.UUID) (*debt.JobPayments, error)
	UpdateDiscount(ctx context.Context, jobID uuid.UUID, discount decimal.Decimal) (*debt.WorkshopJob, error)
}

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	debtService DebtServiceInterface
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(debtService DebtServiceInterface) *OrderHandler {
	return &OrderHandler{debtService: debtService}
}

// CreateOrderRequest represents the order creation request
type CreateOrderRequest struct {
	CustomerID string          `json:"customer_id" validate:"required,uuid"`
	Total      decimal.Decimal `json:"total"`
}

// OrderResponse represents an order response
type OrderResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Total      string `json:"total"`
	CreatedAt  string `json:"created_at"`
}

// OrderDebtResponse represents an order debt summary response
type OrderDebtResponse struct {
	Order  OrderResponse `json:"order"`
	Paid   string        `json:"paid"`
	Debt   string        `json:"debt"`
	Status string        `json:"status"`
}

// OrderPaymentsResponse represents an order debt summary with its payments
type OrderPaymentsResponse struct {
	OrderDebtResponse
	Payments []PostingResponse `json:"payments"`
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	o, err := h.debtService.CreateOrder(r.Context(), customerID, req.Total)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toOrderResponse(o))
}

// GetOrderDebt handles GET /orders/{id}/debt
func (h *OrderHandler) GetOrderDebt(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	d, err := h.debtService.OrderDebt(r.Context(), orderID)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderDebtResponse(d))
}

// GetOrderPayments handles GET /orders/{id}/payments
func (h *OrderHandler) GetOrderPayments(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	op, err := h.debtService.OrderPayments(r.Context(), orderID)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	payments := make([]PostingResponse, 0, len(op.Payments))
	for _, p := range op.Payments {
		payments = append(payments, toPostingResponse(p))
	}
	respondWithJSON(w, http.StatusOK, OrderPaymentsResponse{
		OrderDebtResponse: toOrderDebtResponse(&op.OrderDebt),
		Payments:          payments,
	})
}

// respondDebtError maps debt errors to HTTP status codes
func respondDebtError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, debt.ErrOrderNotFound):
		respondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, debt.ErrJobNotFound):
		respondWithError(w, http.StatusNotFound, "workshop job not found")
	case errors.Is(err, debt.ErrNegativeTotal),
		errors.Is(err, debt.ErrNegativeDiscount),
		errors.Is(err, debt.ErrDiscountExceedsAmount),
		errors.Is(err, debt.ErrInvalidCustomerID),
		errors.Is(err, debt.ErrInvalidWorkshopID):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toOrderResponse(o *debt.Order) OrderResponse {
	return OrderResponse{
		ID:         o.ID.String(),
		CustomerID: o.CustomerID.String(),
		Total:      o.Total.String(),
		CreatedAt:  formatTime(o.CreatedAt),
	}
}

func toOrderDebtResponse(d *debt.OrderDebt) OrderDebtResponse {
	return OrderDebtResponse{
		Order:  toOrderResponse(d.Order),
		Paid:   d.Paid.String(),
		Debt:   d.Debt.String(),
		Status: string(d.Status),
	}
}
