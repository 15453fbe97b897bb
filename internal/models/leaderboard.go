package models

// LeaderboardEntry is a derived ranking row: one per user, carrying that
// user's single best submission across all problems. Never stored.
type LeaderboardEntry struct {
	Rank         int    `db:"-" json:"rank"`
	SubmissionID string `db:"id" json:"submission_id"`
	UserID       string `db:"user_id" json:"user_id"`
	ProblemID    string `db:"problem_id" json:"problem_id"`
	Score        int    `db:"score" json:"score"`
	Verdict      string `db:"verdict" json:"verdict"`
	Timestamp    int64  `db:"timestamp" json:"timestamp"`
}
