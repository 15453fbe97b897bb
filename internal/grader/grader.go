package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/semla/internal/models"
)

// Grader evaluates submitted code and produces a candidate score record.
// How the score was computed is opaque to the rest of the system.
type Grader interface {
	Grade(ctx context.Context, userID, problemID, code string) (*models.Submission, error)
}

type gradeRequest struct {
	UserID    string `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
}

type gradeResponse struct {
	Score   int            `json:"score"`
	Verdict string         `json:"verdict"`
	Details models.Details `json:"error_details"`
}

// HTTPGrader talks to a remote grading service over JSON.
type HTTPGrader struct {
	url    string
	client *http.Client
}

func NewHTTPGrader(url string, timeout time.Duration) *HTTPGrader {
	return &HTTPGrader{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Grade posts the code to the grading service and wraps the result into a
// candidate submission, stamped with a fresh id and the submission time.
func (g *HTTPGrader) Grade(ctx context.Context, userID, problemID, code string) (*models.Submission, error) {
	payload, err := json.Marshal(gradeRequest{
		UserID:    userID,
		ProblemID: problemID,
		Code:      code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode grade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build grade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grading service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("grading service returned %d: %s", resp.StatusCode, string(body))
	}

	var result gradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode grade response: %w", err)
	}

	return &models.Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProblemID: problemID,
		Score:     result.Score,
		Verdict:   result.Verdict,
		Timestamp: time.Now().Unix(),
		Details:   result.Details,
	}, nil
}
