// Package ranking holds the ordering rule for stored submissions.
//
// The same rule lives in two places: here, and in the conditional-upsert
// SQL predicate inside the store. The store tests cross-check the two so
// the "what counts as better" decision cannot drift.
package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shrimpsizemoose/semla/internal/models"
)

// ErrInconsistentStore means the store holds more than one row for a
// (user, problem) pair. The unique constraint makes this unreachable in
// normal operation; it is never patched over here.
var ErrInconsistentStore = errors.New("inconsistent store: duplicate (user, problem) rows")

// Better reports whether the candidate should replace the incumbent:
// higher score wins, equal score is broken by the earlier timestamp.
// Anything else keeps the incumbent.
func Better(candidate, incumbent *models.Submission) bool {
	if candidate.Score != incumbent.Score {
		return candidate.Score > incumbent.Score
	}
	return candidate.Timestamp < incumbent.Timestamp
}

// Reduce folds best-per-problem rows into one leaderboard entry per user:
// each user is represented by their single best submission under Better,
// and entries are ordered by score descending, then timestamp ascending,
// then user id for a stable total order. Output is deterministic for a
// fixed input snapshot.
func Reduce(subs []models.Submission) ([]models.LeaderboardEntry, error) {
	seen := make(map[string]map[string]bool, len(subs))
	best := make(map[string]*models.Submission, len(subs))

	for i := range subs {
		sub := &subs[i]
		if seen[sub.UserID][sub.ProblemID] {
			return nil, fmt.Errorf("%w: user=%s problem=%s", ErrInconsistentStore, sub.UserID, sub.ProblemID)
		}
		if seen[sub.UserID] == nil {
			seen[sub.UserID] = make(map[string]bool)
		}
		seen[sub.UserID][sub.ProblemID] = true

		if incumbent, ok := best[sub.UserID]; !ok || Better(sub, incumbent) {
			best[sub.UserID] = sub
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(best))
	for _, sub := range best {
		entries = append(entries, models.LeaderboardEntry{
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			ProblemID:    sub.ProblemID,
			Score:        sub.Score,
			Verdict:      sub.Verdict,
			Timestamp:    sub.Timestamp,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp < entries[j].Timestamp
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}
