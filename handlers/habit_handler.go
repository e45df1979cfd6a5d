package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"habitsAPI/internal/apperr"
	"habitsAPI/internal/habit"
	"habitsAPI/services"
)

var validate = validator.New()

type HabitHandler struct {
	habitService *services.HabitService
}

func NewHabitHandler(habitService *services.HabitService) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
	}
}

func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req habit.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithAppError(w, apperr.Validation("body", "invalid JSON"))
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondWithAppError(w, apperr.FromValidator(err))
		return
	}

	created, err := h.habitService.CreateHabit(ctx, req.Title, req.WeekDays)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"id": created.ID.String()})
}

func (h *HabitHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	date, err := habit.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondWithAppError(w, apperr.Validation("date", "must be an ISO date"))
		return
	}

	day, err := h.habitService.GetDay(ctx, date)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, day)
}

func (h *HabitHandler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	habitID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, apperr.Validation("id", "must be a valid UUID"))
		return
	}

	if err := h.habitService.ToggleHabit(ctx, habitID); err != nil {
		respondWithAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HabitHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := h.habitService.GetSummary(ctx)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithAppError(w http.ResponseWriter, err error) {
	var vErr *apperr.ValidationError
	var refErr *apperr.ReferenceError
	switch {
	case errors.As(err, &vErr):
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": vErr.Fields,
		})
	case errors.As(err, &refErr):
		respondWithError(w, http.StatusNotFound, refErr.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
