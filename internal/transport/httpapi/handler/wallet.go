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
	"github.com/minhtran/cashbook/internal/platform/wallet"
	"github.com/minhtran/cashbook/internal/transfer"
)

// WalletServiceInterface defines the interface for wallet operations
type WalletServiceInterface interface {
	Create(ctx context.Context, w *wallet.Wallet) (*wallet.Wallet, error)
	Get(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)
	List(ctx context.Context, includeTombstoned bool) ([]*wallet.Wallet, error)
	Update(ctx context.Context, w *wallet.Wallet) (*wallet.Wallet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error)
}

// LedgerReaderInterface defines the read side of the ledger used by wallet routes
type LedgerReaderInterface interface {
	Balance(ctx context.Context, walletID uuid.UUID, asOf *time.Time) (decimal.Decimal, error)
	History(ctx context.Context, walletID uuid.UUID, f ledger.HistoryFilter) ([]*ledger.Posting, error)
	UsageSummary(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*ledger.UsageSummary, error)
}

// TransferListerInterface defines the transfer listing used by wallet routes
type TransferListerInterface interface {
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]*transfer.Transfer, error)
}

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	walletService   WalletServiceInterface
	ledgerService   LedgerReaderInterface
	transferService TransferListerInterface
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService WalletServiceInterface, ledgerService LedgerReaderInterface, transferService TransferListerInterface) *WalletHandler {
	return &WalletHandler{
		walletService:   walletService,
		ledgerService:   ledgerService,
		transferService: transferService,
	}
}

// CreateWalletRequest represents the wallet creation request
type CreateWalletRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Type string `json:"type" validate:"required,oneof=cash bank other"`
}

// UpdateWalletRequest represents the wallet update request
type UpdateWalletRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Type string `json:"type" validate:"required,oneof=cash bank other"`
}

// WalletResponse represents a wallet response
type WalletResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	Balance   *string `json:"balance,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// WalletsListResponse represents the response for listing wallets
type WalletsListResponse struct {
	Wallets []WalletResponse `json:"wallets"`
}

// BalanceResponse represents a wallet balance response
type BalanceResponse struct {
	WalletID string  `json:"wallet_id"`
	Balance  string  `json:"balance"`
	AsOf     *string `json:"as_of,omitempty"`
}

// HistoryResponse represents a wallet history response
type HistoryResponse struct {
	WalletID string            `json:"wallet_id"`
	Postings []PostingResponse `json:"postings"`
}

// UsageSummaryResponse represents a wallet usage summary response
type UsageSummaryResponse struct {
	WalletID         string `json:"wallet_id"`
	From             string `json:"from"`
	To               string `json:"to"`
	IncomeTotal      string `json:"income_total"`
	ExpenseTotal     string `json:"expense_total"`
	AdjustmentsTotal string `json:"adjustments_total"`
	Net              string `json:"net"`
}

// CreateWallet handles POST /wallets
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	wlt := &wallet.Wallet{
		Name: req.Name,
		Type: wallet.Type(req.Type),
	}

	created, err := h.walletService.Create(r.Context(), wlt)
	if err != nil {
		respondWalletError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toWalletResponse(created, nil))
}

// GetWallets handles GET /wallets
func (h *WalletHandler) GetWallets(w http.ResponseWriter, r *http.Request) {
	includeTombstoned := r.URL.Query().Get("include_deleted") == "true"

	wallets, err := h.walletService.List(r.Context(), includeTombstoned)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch wallets")
		return
	}

	responses := make([]WalletResponse, 0, len(wallets))
	for _, wlt := range wallets {
		responses = append(responses, toWalletResponse(wlt, nil))
	}

	respondWithJSON(w, http.StatusOK, WalletsListResponse{Wallets: responses})
}

// GetWallet handles GET /wallets/{id}, including the current balance
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	wlt, err := h.walletService.Get(r.Context(), walletID)
	if err != nil {
		respondWalletError(w, err)
		return
	}

	balance, err := h.ledgerService.Balance(r.Context(), walletID, nil)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	respondWithJSON(w, http.StatusOK, toWalletResponse(wlt, &balance))
}

// UpdateWallet handles PUT /wallets/{id}
func (h *WalletHandler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	var req UpdateWalletRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	wlt := &wallet.Wallet{
		ID:   walletID,
		Name: req.Name,
		Type: wallet.Type(req.Type),
	}

	updated, err := h.walletService.Update(r.Context(), wlt)
	if err != nil {
		respondWalletError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toWalletResponse(updated, nil))
}

// DeleteWallet handles DELETE /wallets/{id}
func (h *WalletHandler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	if err := h.walletService.Delete(r.Context(), walletID); err != nil {
		respondWalletError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreWallet handles POST /wallets/{id}/restore
func (h *WalletHandler) RestoreWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	wlt, err := h.walletService.Restore(r.Context(), walletID)
	if err != nil {
		respondWalletError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toWalletResponse(wlt, nil))
}

// GetBalance handles GET /wallets/{id}/balance with an optional as_of query
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	if _, err := h.walletService.Get(r.Context(), walletID); err != nil {
		respondWalletError(w, err)
		return
	}

	var asOf *time.Time
	if s := r.URL.Query().Get("as_of"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid as_of, expected RFC3339 timestamp")
			return
		}
		asOf = &t
	}

	balance, err := h.ledgerService.Balance(r.Context(), walletID, asOf)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	resp := BalanceResponse{
		WalletID: walletID.String(),
		Balance:  balance.String(),
	}
	if asOf != nil {
		s := formatTime(*asOf)
		resp.AsOf = &s
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetHistory handles GET /wallets/{id}/history with optional kind, from, to
// and transfer_legs query filters
func (h *WalletHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	if _, err := h.walletService.Get(r.Context(), walletID); err != nil {
		respondWalletError(w, err)
		return
	}

	var filter ledger.HistoryFilter
	q := r.URL.Query()
	for _, k := range q["kind"] {
		kind := ledger.Kind(k)
		if !kind.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid kind filter")
			return
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid from, expected RFC3339 timestamp")
			return
		}
		filter.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid to, expected RFC3339 timestamp")
			return
		}
		filter.To = &t
	}
	if s := q.Get("transfer_legs"); s != "" {
		v := s == "true"
		filter.TransferLegs = &v
	}

	postings, err := h.ledgerService.History(r.Context(), walletID, filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	responses := make([]PostingResponse, 0, len(postings))
	for _, p := range postings {
		responses = append(responses, toPostingResponse(p))
	}
	respondWithJSON(w, http.StatusOK, HistoryResponse{
		WalletID: walletID.String(),
		Postings: responses,
	})
}

// GetUsageSummary handles GET /wallets/{id}/summary with required from and to
func (h *WalletHandler) GetUsageSummary(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	if _, err := h.walletService.Get(r.Context(), walletID); err != nil {
		respondWalletError(w, err)
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid from, expected RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid to, expected RFC3339 timestamp")
		return
	}

	sum, err := h.ledgerService.UsageSummary(r.Context(), walletID, from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	respondWithJSON(w, http.StatusOK, UsageSummaryResponse{
		WalletID:         sum.WalletID.String(),
		From:             formatTime(sum.From),
		To:               formatTime(sum.To),
		IncomeTotal:      sum.IncomeTotal.String(),
		ExpenseTotal:     sum.ExpenseTotal.String(),
		AdjustmentsTotal: sum.AdjustmentsTotal.String(),
		Net:              sum.Net.String(),
	})
}

// GetTransfers handles GET /wallets/{id}/transfers
func (h *WalletHandler) GetTransfers(w http.ResponseWriter, r *http.Request) {
	walletID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid wallet ID")
		return
	}

	if _, err := h.walletService.Get(r.Context(), walletID); err != nil {
		respondWalletError(w, err)
		return
	}

	transfers, err := h.transferService.ListByWallet(r.Context(), walletID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to fetch transfers")
		return
	}

	responses := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		responses = append(responses, toTransferResponse(t))
	}
	respondWithJSON(w, http.StatusOK, TransfersListResponse{Transfers: responses})
}

// respondWalletError maps wallet errors to HTTP status codes
func respondWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "wallet not found")
	case errors.Is(err, wallet.ErrDuplicateName):
		respondWithError(w, http.StatusConflict, "wallet name already exists")
	case errors.Is(err, wallet.ErrActive):
		respondWithError(w, http.StatusConflict, "wallet is not deleted")
	case errors.Is(err, wallet.ErrMissingName),
		errors.Is(err, wallet.ErrNameTooLong),
		errors.Is(err, wallet.ErrInvalidType),
		errors.Is(err, wallet.ErrInvalidID):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// toWalletResponse converts a domain wallet to its response shape
func toWalletResponse(wlt *wallet.Wallet, balance *decimal.Decimal) WalletResponse {
	resp := WalletResponse{
		ID:        wlt.ID.String(),
		Name:      wlt.Name,
		Type:      string(wlt.Type),
		Status:    string(wlt.Status),
		CreatedAt: formatTime(wlt.CreatedAt),
		UpdatedAt: formatTime(wlt.UpdatedAt),
	}
	if balance != nil {
		s := balance.String()
		resp.Balance = &s
	}
	return resp
}
