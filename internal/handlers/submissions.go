package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/metrics"
)

type SubmissionHandler struct {
	service *app.Service
}

func NewSubmissionHandler(service *app.Service) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
	}
}

type submitRequest struct {
	UserID    string `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
}

// HandleSubmit grades the submitted code and records the result if it
// beats the user's stored best for the problem.
func (h *SubmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.ProblemID == "" || req.Code == "" {
		http.Error(w, "user_id, problem_id and code are required", http.StatusBadRequest)
		return
	}

	if err := h.service.ValidateAuthAndUser(r, req.UserID); err != nil {
		logger.Error.Printf("Auth failed for %s: %v", req.UserID, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.service.Catalog.Has(req.ProblemID) {
		http.Error(w, "Problem test cases not found", http.StatusNotFound)
		return
	}

	candidate, err := h.service.Grader.Grade(r.Context(), req.UserID, req.ProblemID, req.Code)
	if err != nil {
		logger.Error.Printf("Grading failed for %s/%s: %v", req.UserID, req.ProblemID, err)
		http.Error(w, "Grading failed", http.StatusBadGateway)
		return
	}

	applied, err := h.service.SubmitScore(candidate)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCandidate) {
			logger.Error.Printf("Grader produced invalid candidate: %v", err)
			http.Error(w, "Invalid grading result", http.StatusBadRequest)
			return
		}
		logger.Error.Printf("Failed to save score for %s/%s: %v", req.UserID, req.ProblemID, err)
		http.Error(w, "Failed to save score", http.StatusInternalServerError)
		return
	}

	result := "rejected"
	if applied {
		result = "applied"
	}
	metrics.SubmissionsTotal.WithLabelValues(
		candidate.ProblemID,
		candidate.Verdict,
		result,
	).Inc()
	metrics.SubmissionScore.WithLabelValues(candidate.ProblemID).Observe(float64(candidate.Score))

	best, err := h.service.Store.GetScore(req.UserID, req.ProblemID)
	if err != nil {
		logger.Error.Printf("Failed to read back best score: %v", err)
		http.Error(w, "Failed to read best score", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"applied":    applied,
		"submission": candidate,
		"best":       best,
	}); err != nil {
		logger.Error.Printf("Failed to encode submit response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *SubmissionHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := h.service.GetLeaderboard()
	if err != nil {
		logger.Error.Printf("Failed to fetch leaderboard: %v", err)
		http.Error(w, "Failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"leaderboard": entries,
	}); err != nil {
		logger.Error.Printf("Failed to encode leaderboard: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
