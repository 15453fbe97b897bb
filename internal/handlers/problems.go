package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
)

type ProblemHandler struct {
	service *app.Service
}

func NewProblemHandler(service *app.Service) *ProblemHandler {
	return &ProblemHandler{
		service: service,
	}
}

func (h *ProblemHandler) HandleListProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ids, err := h.service.Catalog.List()
	if err != nil {
		logger.Error.Printf("Failed to list problems: %v", err)
		http.Error(w, "Failed to list problems", http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"problems": ids,
	}); err != nil {
		logger.Error.Printf("Failed to encode problems: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *ProblemHandler) HandleProblemInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	problemID := r.PathValue("problem_id")
	if problemID == "" {
		http.Error(w, "Invalid problem id", http.StatusBadRequest)
		return
	}

	info, err := h.service.Catalog.Describe(problemID)
	if err != nil {
		logger.Error.Printf("Failed to describe problem %s: %v", problemID, err)
		http.Error(w, "Error loading problem", http.StatusInternalServerError)
		return
	}
	if info == nil {
		http.Error(w, "Problem not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		logger.Error.Printf("Failed to encode problem info: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
