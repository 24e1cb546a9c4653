package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/ledger"
)

// LedgerServiceInterface defines the interface for posting operations
type LedgerServiceInterface interface {
	AppendPosting(ctx context.Context, d ledger.PostingDraft) (*ledger.Posting, error)
	GetPosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error)
	EditPosting(ctx context.Context, id uuid.UUID, ch ledger.PostingChange) (*ledger.Posting, error)
	DeletePosting(ctx context.Context, id uuid.UUID) error
	RestorePosting(ctx context.Context, id uuid.UUID) (*ledger.Posting, error)
}

// TransactionHandler handles posting-related HTTP requests
type TransactionHandler struct {
	ledgerService LedgerServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(ledgerService LedgerServiceInterface) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// CreateTransactionRequest represents the posting creation request
type CreateTransactionRequest struct {
	WalletID      string          `json:"wallet_id" validate:"required,uuid"`
	Kind          string          `json:"kind" validate:"required,oneof=income expense adjustment"`
	Date          time.Time       `json:"date" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	CategoryID    *string         `json:"category_id,omitempty" validate:"omitempty,uuid"`
	OrderID       *string         `json:"order_id,omitempty" validate:"omitempty,uuid"`
	WorkshopJobID *string         `json:"workshop_job_id,omitempty" validate:"omitempty,uuid"`
	Note          string          `json:"note"`
}

// UpdateTransactionRequest represents the posting update request; nil fields
// are left untouched
type UpdateTransactionRequest struct {
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Date       *time.Time       `json:"date,omitempty"`
	Note       *string          `json:"note,omitempty"`
	CategoryID *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
}

// PostingResponse represents a posting response
type PostingResponse struct {
	ID            string  `json:"id"`
	WalletID      string  `json:"wallet_id"`
	Kind          string  `json:"kind"`
	Date          string  `json:"date"`
	Amount        string  `json:"amount"`
	CategoryID    *string `json:"category_id,omitempty"`
	OrderID       *string `json:"order_id,omitempty"`
	WorkshopJobID *string `json:"workshop_job_id,omitempty"`
	TransferID    *string `json:"transfer_id,omitempty"`
	CounterpartID *string `json:"counterpart_id,omitempty"`
	Note          string  `json:"note"`
	BalanceAfter  string  `json:"balance_after"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// CreateTransaction handles POST /transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	draft := ledger.PostingDraft{
		WalletID: walletID,
		Kind:     ledger.Kind(req.Kind),
		Date:     req.Date,
		Amount:   req.Amount,
		Note:     req.Note,
	}
	if id, ok := parseOptionalUUID(req.CategoryID); ok {
		draft.CategoryID = id
	}
	if id, ok := parseOptionalUUID(req.OrderID); ok {
		draft.Links.OrderID = id
	}
	if id, ok := parseOptionalUUID(req.WorkshopJobID); ok {
		draft.Links.WorkshopJobID = id
	}

	p, err := h.ledgerService.AppendPosting(r.Context(), draft)
	if err != nil {
		respondPostingError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toPostingResponse(p))
}

// GetTransaction handles GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	p, err := h.ledgerService.GetPosting(r.Context(), id)
	if err != nil {
		respondPostingError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPostingResponse(p))
}

// UpdateTransaction handles PATCH /transactions/{id}
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	var req UpdateTransactionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ch := ledger.PostingChange{
		Amount: req.Amount,
		Date:   req.Date,
		Note:   req.Note,
	}
	if id, ok := parseOptionalUUID(req.CategoryID); ok {
		ch.CategoryID = id
	}

	p, err := h.ledgerService.EditPosting(r.Context(), id, ch)
	if err != nil {
		respondPostingError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPostingResponse(p))
}

// DeleteTransaction handles DELETE /transactions/{id}
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	if err := h.ledgerService.DeletePosting(r.Context(), id); err != nil {
		respondPostingError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreTransaction handles POST /transactions/{id}/restore
func (h *TransactionHandler) RestoreTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	p, err := h.ledgerService.RestorePosting(r.Context(), id)
	if err != nil {
		respondPostingError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toPostingResponse(p))
}

// respondPostingError maps ledger errors to HTTP status codes
func respondPostingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrPostingNotFound):
		respondWithError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, ledger.ErrWalletNotFound):
		respondWithError(w, http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrPostingIsTransferLeg):
		respondWithError(w, http.StatusConflict, "transaction belongs to a transfer, modify the transfer instead")
	case errors.Is(err, ledger.ErrPostingActive):
		respondWithError(w, http.StatusConflict, "transaction is not deleted")
	case errors.Is(err, ledger.ErrInvalidWalletID),
		errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, ledger.ErrMissingDate),
		errors.Is(err, ledger.ErrZeroAmount),
		errors.Is(err, ledger.ErrAmountSign):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseOptionalUUID parses an optional UUID string; a nil or unparsable input
// yields ok=false
func parseOptionalUUID(s *string) (*uuid.UUID, bool) {
	if s == nil {
		return nil, false
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// toPostingResponse converts a domain posting to its response shape
func toPostingResponse(p *ledger.Posting) PostingResponse {
	return PostingResponse{
		ID:            p.ID.String(),
		WalletID:      p.WalletID.String(),
		Kind:          string(p.Kind),
		Date:          formatTime(p.Date),
		Amount:        p.Amount.String(),
		CategoryID:    uuidPtrString(p.CategoryID),
		OrderID:       uuidPtrString(p.Links.OrderID),
		WorkshopJobID: uuidPtrString(p.Links.WorkshopJobID),
		TransferID:    uuidPtrString(p.Links.TransferID),
		CounterpartID: uuidPtrString(p.Links.CounterpartID),
		Note:          p.Note,
		BalanceAfter:  p.BalanceAfter.String(),
		Status:        string(p.Status),
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}
