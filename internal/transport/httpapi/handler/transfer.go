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
	"github.com/minhtran/cashbook/internal/transfer"
)

// TransferServiceInterface defines the interface for transfer operations
type TransferServiceInterface interface {
	Create(ctx context.Context, in transfer.CreateInput) (*transfer.Transfer, error)
	Get(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error)
	Edit(ctx context.Context, id uuid.UUID, ch transfer.Change) (*transfer.Transfer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests
type TransferHandler struct {
	transferService TransferServiceInterface
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transferService TransferServiceInterface) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// CreateTransferRequest represents the transfer creation request
type CreateTransferRequest struct {
	FromWalletID string          `json:"from_wallet_id" validate:"required,uuid"`
	ToWalletID   string          `json:"to_wallet_id" validate:"required,uuid"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	Date         time.Time       `json:"date" validate:"required"`
	Note         string          `json:"note"`
}

// UpdateTransferRequest represents the transfer update request; nil fields
// are left untouched
type UpdateTransferRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Date   *time.Time       `json:"date,omitempty"`
	Note   *string          `json:"note,omitempty"`
}

// TransferResponse represents a transfer response
type TransferResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Amount       string `json:"amount"`
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Note         string `json:"note"`
	OutPostingID string `json:"out_posting_id"`
	InPostingID  string `json:"in_posting_id"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// TransfersListResponse represents the response for listing transfers
type TransfersListResponse struct {
	Transfers []TransferResponse `json:"transfers"`
}

// CreateTransfer handles POST /transfers
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	fromID, err := uuid.Parse(req.FromWalletID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid source wallet ID")
		return
	}
	toID, err := uuid.Parse(req.ToWalletID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid destination wallet ID")
		return
	}

	t, err := h.transferService.Create(r.Context(), transfer.CreateInput{
		FromWalletID: fromID,
		ToWalletID:   toID,
		Amount:       req.Amount,
		Date:         req.Date,
		Note:         req.Note,
	})
	if err != nil {
		respondTransferError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toTransferResponse(t))
}

// GetTransfer handles GET /transfers/{id}
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transfer ID")
		return
	}

	t, err := h.transferService.Get(r.Context(), id)
	if err != nil {
		respondTransferError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransferResponse(t))
}

// UpdateTransfer handles PATCH /transfers/{id}
func (h *TransferHandler) UpdateTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transfer ID")
		return
	}

	var req UpdateTransferRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.transferService.Edit(r.Context(), id, transfer.Change{
		Amount: req.Amount,
		Date:   req.Date,
		Note:   req.Note,
	})
	if err != nil {
		respondTransferError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransferResponse(t))
}

// DeleteTransfer handles DELETE /transfers/{id}
func (h *TransferHandler) DeleteTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transfer ID")
		return
	}

	if err := h.transferService.Delete(r.Context(), id); err != nil {
		respondTransferError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreTransfer handles POST /transfers/{id}/restore
func (h *TransferHandler) RestoreTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid transfer ID")
		return
	}

	t, err := h.transferService.Restore(r.Context(), id)
	if err != nil {
		respondTransferError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toTransferResponse(t))
}

// respondTransferError maps transfer errors to HTTP status codes
func respondTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transfer.ErrTransferNotFound):
		respondWithError(w, http.StatusNotFound, "transfer not found")
	case errors.Is(err, ledger.ErrWalletNotFound):
		respondWithError(w, http.StatusNotFound, "wallet not found")
	case errors.Is(err, transfer.ErrTransferActive):
		respondWithError(w, http.StatusConflict, "transfer is not deleted")
	case errors.Is(err, transfer.ErrSameWallet),
		errors.Is(err, transfer.ErrNonPositiveAmount),
		errors.Is(err, transfer.ErrMissingDate),
		errors.Is(err, transfer.ErrInvalidWalletID):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrPartialTransfer):
		respondWithError(w, http.StatusInternalServerError, "transfer left inconsistent, manual review required")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// toTransferResponse converts a domain transfer to its response shape
func toTransferResponse(t *transfer.Transfer) TransferResponse {
	return TransferResponse{
		ID:           t.ID.String(),
		Date:         formatTime(t.Date),
		Amount:       t.Amount.String(),
		FromWalletID: t.FromWalletID.String(),
		ToWalletID:   t.ToWalletID.String(),
		Note:         t.Note,
		OutPostingID: t.OutPostingID.String(),
		InPostingID:  t.InPostingID.String(),
		Status:       string(t.Status),
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
}
