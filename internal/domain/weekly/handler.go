package weekly

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

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

type finalizeRequest struct {
	WeekStart     string `json:"week_start" validate:"required"`
	ManualBonus   int64  `json:"manual_bonus"`
	ManualPenalty int64  `json:"manual_penalty" validate:"lte=0"`
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	weekStart, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		response.BadRequest(w, "week_start must be YYYY-MM-DD")
		return
	}

	breakdown, err := h.svc.Finalize(r.Context(), childID, weekStart, req.ManualBonus, req.ManualPenalty)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, breakdown)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}
	weekStart, err := time.Parse("2006-01-02", r.URL.Query().Get("week_start"))
	if err != nil {
		response.BadRequest(w, "week_start must be YYYY-MM-DD")
		return
	}

	breakdown, err := h.svc.Preview(r.Context(), childID, weekStart, 0, 0)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, breakdown)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}
	weekStart, err := time.Parse("2006-01-02", r.URL.Query().Get("week_start"))
	if err != nil {
		response.BadRequest(w, "week_start must be YYYY-MM-DD")
		return
	}

	rec, err := h.svc.Get(r.Context(), childID, weekStart)
	if err != nil {
		h.mapError(w, err)
		return
	}
	if rec == nil {
		response.NotFound(w, "week record not found")
		return
	}
	response.OK(w, rec)
}

func (h *Handler) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlreadyFinalized):
		response.Conflict(w, "week already finalized")
	case errors.Is(err, ErrInvalidWeek):
		response.BadRequest(w, "week start must be a Monday")
	case errors.Is(err, ledger.ErrAccountFrozen):
		response.Forbidden(w, "account frozen pending parent review")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{childID}", h.Get)
	r.Get("/{childID}/preview", h.Preview)
	r.With(middleware.RequireParent()).Post("/{childID}/finalize", h.Finalize)
	return r
}
