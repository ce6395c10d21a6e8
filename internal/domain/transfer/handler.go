package transfer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

type createRequest struct {
	FromChildID     string `json:"from_child_id" validate:"required,uuid"`
	ToChildID       string `json:"to_child_id" validate:"required,uuid"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	Type            string `json:"type" validate:"required,transfer_type"`
	DealDescription string `json:"deal_description"`
	LoanInterest    int64  `json:"loan_interest" validate:"gte=0"`
	LoanTermDays    int64  `json:"loan_term_days" validate:"gte=0"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	fromID, err := uuid.Parse(req.FromChildID)
	if err != nil {
		response.BadRequest(w, "invalid from_child_id")
		return
	}
	toID, err := uuid.Parse(req.ToChildID)
	if err != nil {
		response.BadRequest(w, "invalid to_child_id")
		return
	}

	t, err := h.svc.Create(r.Context(), middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()), CreateInput{
		FromChildID:     fromID,
		ToChildID:       toID,
		Amount:          req.Amount,
		Type:            Type(req.Type),
		DealDescription: req.DealDescription,
		LoanInterest:    req.LoanInterest,
		LoanTermDays:    req.LoanTermDays,
	})
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.Created(w, t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		response.BadRequest(w, "invalid transfer id")
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, t)
}

func (h *Handler) ListByChild(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}
	limit, offset := pagination(r)

	transfers, err := h.svc.ListByChild(r.Context(), childID, limit, offset)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, transfers)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Transfer, error) {
		return h.svc.Approve(r.Context(), id)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Transfer, error) {
		return h.svc.Reject(r.Context(), id, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()))
	})
}

func (h *Handler) MarkDone(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Transfer, error) {
		return h.svc.MarkDone(r.Context(), id, middleware.GetUserID(r.Context()))
	})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Transfer, error) {
		return h.svc.Confirm(r.Context(), id, middleware.GetUserID(r.Context()))
	})
}

func (h *Handler) Repay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id uuid.UUID) (*Transfer, error) {
		return h.svc.Repay(r.Context(), id, middleware.GetUserID(r.Context()))
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(id uuid.UUID) (*Transfer, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		response.BadRequest(w, "invalid transfer id")
		return
	}
	t, err := fn(id)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, t)
}

func (h *Handler) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "transfer not found")
	case errors.Is(err, ErrInvalidTransfer):
		response.BadRequest(w, "invalid transfer request")
	case errors.Is(err, ErrLimitExceeded):
		response.Conflict(w, "transfer limit exceeded")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "transfer is not in a state that allows this action")
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, "not authorized for this transfer")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		response.Conflict(w, "insufficient funds")
	case errors.Is(err, ledger.ErrAccountFrozen):
		response.Forbidden(w, "account frozen pending parent review")
	default:
		response.InternalError(w)
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/{transferID}", h.Get)
	r.Get("/child/{childID}", h.ListByChild)
	r.With(middleware.RequireParent()).Post("/{transferID}/approve", h.Approve)
	r.Post("/{transferID}/reject", h.Reject)
	r.Post("/{transferID}/done", h.MarkDone)
	r.Post("/{transferID}/confirm", h.Confirm)
	r.Post("/{transferID}/repay", h.Repay)
	return r
}
