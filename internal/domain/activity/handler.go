package activity

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/fambank/fambank-api/internal/domain/ledger"
	"github.com/fambank/fambank-api/internal/pkg/response"
	"github.com/fambank/fambank-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type saveDayRequest struct {
	Date         string  `json:"date" validate:"required"`
	RoomOK       bool    `json:"room_ok"`
	Grades       []int64 `json:"grades" validate:"dive,gte=1,lte=5"`
	SportMinutes int64   `json:"sport_minutes" validate:"gte=0"`
	DiaryMissed  bool    `json:"diary_missed"`
}

func (h *Handler) SaveDay(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}

	var req saveDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.BadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	result, err := h.svc.SaveDay(r.Context(), DayRecord{
		ChildID:      childID,
		Date:         date,
		RoomOK:       req.RoomOK,
		Grades:       pq.Int64Array(req.Grades),
		SportMinutes: req.SportMinutes,
		DiaryMissed:  req.DiaryMissed,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAccountFrozen):
			response.Forbidden(w, "account frozen pending parent review")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, result)
}

func (h *Handler) Range(w http.ResponseWriter, r *http.Request) {
	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		response.BadRequest(w, "invalid child id")
		return
	}

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		response.BadRequest(w, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		response.BadRequest(w, "to must be YYYY-MM-DD")
		return
	}

	records, err := h.svc.Range(r.Context(), childID, from, to)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, records)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/{childID}/days", h.SaveDay)
	r.Get("/{childID}/days", h.Range)
	return r
}
