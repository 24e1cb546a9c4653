package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minhtran/cashbook/internal/debt"
)

// WorkshopJobHandler handles workshop job HTTP requests
type WorkshopJobHandler struct {
	debtService DebtServiceInterface
}

// NewWorkshopJobHandler creates a new workshop job handler
func NewWorkshopJobHandler(debtService DebtServiceInterface) *WorkshopJobHandler {
	return &WorkshopJobHandler{debtService: debtService}
}

// CreateWorkshopJobRequest represents the job creation request
type CreateWorkshopJobRequest struct {
	WorkshopID     string          `json:"workshop_id" validate:"required,uuid"`
	Amount         decimal.Decimal `json:"amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// UpdateDiscountRequest represents the discount update request
type UpdateDiscountRequest struct {
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// WorkshopJobResponse represents a workshop job response
type WorkshopJobResponse struct {
	ID             string `json:"id"`
	WorkshopID     string `json:"workshop_id"`
	Amount         string `json:"amount"`
	DiscountAmount string `json:"discount_amount"`
	CreatedAt      string `json:"created_at"`
}

// JobDebtResponse represents a workshop job debt summary response
type JobDebtResponse struct {
	Job    WorkshopJobResponse `json:"job"`
	Net    string              `json:"net"`
	Paid   string              `json:"paid"`
	Debt   string              `json:"debt"`
	Status string              `json:"status"`
}

// JobPaymentsResponse represents a job debt summary with its payments
type JobPaymentsResponse struct {
	JobDebtResponse
	Payments []PostingResponse `json:"payments"`
}

// CreateWorkshopJob handles POST /workshop-jobs
func (h *WorkshopJobHandler) CreateWorkshopJob(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkshopJobRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	workshopID, err := uuid.Parse(req.WorkshopID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workshop ID")
		return
	}

	j, err := h.debtService.CreateWorkshopJob(r.Context(), workshopID, req.Amount, req.DiscountAmount)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toWorkshopJobResponse(j))
}

// GetJobDebt handles GET /workshop-jobs/{id}/debt
func (h *WorkshopJobHandler) GetJobDebt(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	d, err := h.debtService.WorkshopJobDebt(r.Context(), jobID)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toJobDebtResponse(d))
}

// GetJobPayments handles GET /workshop-jobs/{id}/payments
func (h *WorkshopJobHandler) GetJobPayments(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	jp, err := h.debtService.JobPayments(r.Context(), jobID)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	payments := make([]PostingResponse, 0, len(jp.Payments))
	for _, p := range jp.Payments {
		payments = append(payments, toPostingResponse(p))
	}
	respondWithJSON(w, http.StatusOK, JobPaymentsResponse{
		JobDebtResponse: toJobDebtResponse(&jp.JobDebt),
		Payments:        payments,
	})
}

// UpdateDiscount handles PUT /workshop-jobs/{id}/discount
func (h *WorkshopJobHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	var req UpdateDiscountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	j, err := h.debtService.UpdateDiscount(r.Context(), jobID, req.DiscountAmount)
	if err != nil {
		respondDebtError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toWorkshopJobResponse(j))
}

func toWorkshopJobResponse(j *debt.WorkshopJob) WorkshopJobResponse {
	return WorkshopJobResponse{
		ID:             j.ID.String(),
		WorkshopID:     j.WorkshopID.String(),
		Amount:         j.Amount.String(),
		DiscountAmount: j.DiscountAmount.String(),
		CreatedAt:      formatTime(j.CreatedAt),
	}
}

func toJobDebtResponse(d *debt.JobDebt) JobDebtResponse {
	return JobDebtResponse{
		Job:    toWorkshopJobResponse(d.Job),
		Net:    d.Net.String(),
		Paid:   d.Paid.String(),
		Debt:   d.Debt.String(),
		Status: string(d.Status),
	}
}
