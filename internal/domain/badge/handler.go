package badge

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fambank/fambank-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) ListByChild(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}

	badges, err := h.svc.ListByChild(r.Context(), childID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, badges)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/{childID}", h.ListByChild)
	return r
}
