package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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

type exchangeRequest struct {
	Coins               int64  `json:"coins" validate:"gt=0"`
	ExpectedCoinsBefore *int64 `json:"expected_coins_before,omitempty"`
}

type adjustRequest struct {
	CoinsDelta  int64  `json:"coins_delta"`
	MoneyDelta  int64  `json:"money_delta"`
	Description string `json:"description" validate:"required"`
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	wallet, err := h.svc.GetWallet(r.Context(), childID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{
		"wallet": wallet,
		"level":  wallet.Level(),
	})
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.svc.ListAudit(r.Context(), childID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, entries)
}

func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actor := ActorChild
	if middleware.IsParent(r.Context()) {
		actor = ActorParent
	}

	entry, err := h.svc.Exchange(r.Context(), childID, req.Coins, actor, req.ExpectedCoinsBefore)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, entry)
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	entry, err := h.svc.ManualAdjust(r.Context(), childID, req.CoinsDelta, req.MoneyDelta, req.Description)
	if err != nil {
		h.mapError(w, err)
		return
	}
	response.OK(w, entry)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	childID, ok := childIDParam(w, r)
	if !ok {
		return
	}

	reviewed, err := h.svc.Review(r.Context(), childID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"reviewed": reviewed})
}

func (h *Handler) mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidChange), errors.Is(err, ErrInvalidAction):
		response.BadRequest(w, "invalid balance change")
	case errors.Is(err, ErrInsufficientFunds):
		response.Conflict(w, "insufficient funds")
	case errors.Is(err, ErrAccountFrozen):
		response.Forbidden(w, "account frozen pending parent review")
	case errors.Is(err, ErrStaleState):
		response.Conflict(w, "wallet state changed, retry")
	default:
		response.InternalError(w)
	}
}

func childIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{childID}", h.GetWallet)
	r.Get("/{childID}/audit", h.ListAudit)
	r.Post("/{childID}/exchange", h.Exchange)
	r.With(middleware.RequireParent()).Post("/{childID}/adjust", h.Adjust)
	r.With(middleware.RequireParent()).Post("/{childID}/review", h.Review)
	return r
}
