package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fambank/fambank-api/internal/middleware"
	"github.com/fambank/fambank-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type setRequest struct {
	Key   string `json:"key" validate:"required"`
	Value int64  `json:"value"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rates, err := h.svc.Rates(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, rates)
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Key == "" {
		response.BadRequest(w, "key is required")
		return
	}

	if err := h.svc.Set(r.Context(), req.Key, req.Value); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Get)
	r.With(middleware.RequireParent()).Put("/", h.Set)
	return r
}
