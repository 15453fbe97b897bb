package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	VerdictAccepted     = "accepted"
	VerdictPartial      = "partial"
	VerdictWrongAnswer  = "wrong_answer"
	VerdictRuntimeError = "runtime_error"
	VerdictCompileError = "compile_error"
)

// Diagnostic is a single grading remark, e.g. a failing test description.
type Diagnostic struct {
	Test    string `json:"test,omitempty"`
	Message string `json:"message"`
}

// Details is stored as a JSON array in a TEXT column.
type Details []Diagnostic

func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal details: %w", err)
	}
	return string(b), nil
}

func (d *Details) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported details column type %T", src)
	}
}

// Submission is the best stored result for one (user, problem) pair.
// The row keeps the id of the submission that first created it; a better
// submission overwrites the other fields but not the id.
type Submission struct {
	ID        string  `db:"id" json:"submission_id" validate:"required"`
	UserID    string  `db:"user_id" json:"user_id" validate:"required,max=50"`
	ProblemID string  `db:"problem_id" json:"problem_id" validate:"required,max=100"`
	Score     int     `db:"score" json:"score" validate:"min=0"`
	Verdict   string  `db:"verdict" json:"verdict" validate:"required,oneof=accepted partial wrong_answer runtime_error compile_error"`
	Timestamp int64   `db:"timestamp" json:"timestamp" validate:"required"`
	Details   Details `db:"details" json:"error_details"`
}

func (s *Submission) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
