package store

import "errors"

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already exists")

	// ErrInconsistentRanking means the submissions table violates the
	// one-row-per-(user, problem) guarantee.
	ErrInconsistentRanking = errors.New("submissions table holds duplicate (user, problem) rows")
)
