package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/semla/internal/models"
)

type SubmissionStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)

	UpsertScoreIfBetter(sub *models.Submission) (bool, error)
	GetScore(userID, problemID string) (*models.Submission, error)
	ListScores() ([]models.Submission, error)
	FetchLeaderboard() ([]models.LeaderboardEntry, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
	// UniqueColumn maps a driver unique-violation error to the offending
	// column name ("username", "email"), or "" for unrelated errors.
	UniqueColumn func(error) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) CreateUser(user *models.User) error {
	query := s.Converter(`
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := s.DB.Get(&user.ID, query, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if s.UniqueColumn != nil {
			switch s.UniqueColumn(err) {
			case "username":
				return ErrUsernameTaken
			case "email":
				return ErrEmailTaken
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *BaseStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = ?
	`)

	err := s.DB.Get(&user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpsertScoreIfBetter inserts the candidate or overwrites the stored row
// for its (user, problem) pair, but only when the candidate has a higher
// score, or an equal score with an earlier timestamp. The whole decision
// is one statement, so concurrent submissions for the same pair serialize
// inside the database and different pairs never block each other. The row
// id is not touched on overwrite: it stays the id of the submission that
// first claimed the pair.
//
// Returns true when the candidate was written, false when the stored row
// already beats it. The predicate must stay in sync with ranking.Better.
func (s *BaseStore) UpsertScoreIfBetter(sub *models.Submission) (bool, error) {
	query := s.Converter(`
		INSERT INTO submissions (id, user_id, problem_id, score, verdict, timestamp, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, problem_id) DO UPDATE SET
			score = EXCLUDED.score,
			verdict = EXCLUDED.verdict,
			timestamp = EXCLUDED.timestamp,
			details = EXCLUDED.details
		WHERE EXCLUDED.score > submissions.score
		   OR (EXCLUDED.score = submissions.score AND EXCLUDED.timestamp < submissions.timestamp)
		RETURNING id
	`)

	var id string
	err := s.DB.Get(&id, query,
		sub.ID,
		sub.UserID,
		sub.ProblemID,
		sub.Score,
		sub.Verdict,
		sub.Timestamp,
		sub.Details,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert score: %w", err)
	}
	return true, nil
}

func (s *BaseStore) GetScore(userID, problemID string) (*models.Submission, error) {
	var sub models.Submission
	query := s.Converter(`
		SELECT id, user_id, problem_id, score, verdict, timestamp, details
		FROM submissions
		WHERE user_id = ? AND problem_id = ?
	`)

	err := s.DB.Get(&sub, query, userID, problemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return &sub, nil
}

func (s *BaseStore) ListScores() ([]models.Submission, error) {
	var subs []models.Submission
	err := s.DB.Select(&subs, `
		SELECT id, user_id, problem_id, score, verdict, timestamp, details
		FROM submissions
		ORDER BY user_id, problem_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return subs, nil
}

// FetchLeaderboard reduces stored rows to one entry per user: the row
// with the highest score, ties broken by earliest timestamp, then orders
// users the same way. A user's rank comes from their single best problem,
// not a sum across problems.
func (s *BaseStore) FetchLeaderboard() ([]models.LeaderboardEntry, error) {
	// unreachable while the unique constraint holds, but a broken store
	// must fail loudly rather than rank garbage
	var dupes int
	err := s.DB.Get(&dupes, `
		SELECT COUNT(*)
		FROM (
			SELECT user_id, problem_id
			FROM submissions
			GROUP BY user_id, problem_id
			HAVING COUNT(*) > 1
		) d
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to check ranking consistency: %w", err)
	}
	if dupes > 0 {
		return nil, fmt.Errorf("%w: %d duplicate pairs", ErrInconsistentRanking, dupes)
	}

	query := `
		SELECT id, user_id, problem_id, score, verdict, timestamp
		FROM (
			SELECT
				id, user_id, problem_id, score, verdict, timestamp,
				ROW_NUMBER() OVER (
					PARTITION BY user_id
					ORDER BY score DESC, timestamp ASC, problem_id ASC
				) AS rn
			FROM submissions
		) ranked
		WHERE rn = 1
		ORDER BY score DESC, timestamp ASC, user_id ASC
	`

	var entries []models.LeaderboardEntry
	if err := s.DB.Select(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}
