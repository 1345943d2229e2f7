package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"prepboard-backend/internal/middleware"
	"prepboard-backend/internal/models"
	"prepboard-backend/internal/repository"
	"prepboard-backend/internal/worker"
)

const defaultHistoryLimit = 50

type AttemptHandler struct {
	attemptRepo *repository.AttemptRepo
	redis       *redis.Client
}

func NewAttemptHandler(attemptRepo *repository.AttemptRepo, redisClient *redis.Client) *AttemptHandler {
	return &AttemptHandler{attemptRepo: attemptRepo, redis: redisClient}
}

// Record writes one attempt to the activity log, then queues a stats
// refresh so dashboards catch up shortly after.
func (h *AttemptHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.RecordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.QuestionID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "question_id is required", r))
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject is required", r))
		return
	}

	attempt := &models.AttemptRecord{
		UserID:     userID,
		QuestionID: req.QuestionID,
		Subject:    req.Subject,
		WasCorrect: req.WasCorrect,
	}

	if err := h.attemptRepo.Create(r.Context(), attempt); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record attempt", r))
		return
	}

	if err := worker.EnqueueRefresh(r.Context(), h.redis, userID); err != nil {
		// The attempt is persisted; the next refresh will pick it up.
		log.Printf("attempts: failed to enqueue stats refresh for user %s: %v", userID, err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"attempt": attempt,
	})
}

// History returns the newest attempts first.
func (h *AttemptHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be between 1 and 500", r))
			return
		}
		limit = n
	}

	records, err := h.attemptRepo.ListRecentByUser(r.Context(), userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load attempts", r))
		return
	}
	if records == nil {
		records = []models.AttemptRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempts": records,
	})
}
