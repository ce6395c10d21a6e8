package withdrawal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/middleware"
	"github.com/fambank/fambank-api/internal/pkg/response"
	"github.com/fambank/fambank-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type requestBody struct {
	ChildID     string `json:"child_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
}

func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	childID, err := uuid.Parse(req.ChildID)
	if err != nil {
		response.BadRequest(w, "invalid child_id")
		return
	}

	wd, err := h.svc.Request(r.Context(), childID, req.AmountCents)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.Created(w, wd)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Approve)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Reject)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*CashWithdrawal, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "withdrawalID"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}
	wd, err := fn(r.Context(), id)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, wd)
}

func (h *Handler) ListByChild(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}
	withdrawals, err := h.svc.ListByChild(r.Context(), childID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, withdrawals)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.svc.ListPending(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, withdrawals)
}

func (h *Handler) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "withdrawal not found")
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, "amount must be positive and within the money balance")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "withdrawal already resolved")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		response.Conflict(w, "insufficient money balance")
	case errors.Is(err, ledger.ErrAccountFrozen):
		response.Forbidden(w, "account frozen pending parent review")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Request)
	r.Get("/child/{childID}", h.ListByChild)
	r.With(middleware.RequireParent()).Get("/pending", h.ListPending)
	r.With(middleware.RequireParent()).Post("/{withdrawalID}/approve", h.Approve)
	r.With(middleware.RequireParent()).Post("/{withdrawalID}/reject", h.Reject)
	return r
}
