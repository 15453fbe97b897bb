package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/models"
)

func sub(id, user, problem string, score int, ts int64) models.Submission {
	return models.Submission{
		ID:        id,
		UserID:    user,
		ProblemID: problem,
		Score:     score,
		Verdict:   models.VerdictAccepted,
		Timestamp: ts,
	}
}

func TestBetter(t *testing.T) {
	testCases := []struct {
		name      string
		candidate models.Submission
		incumbent models.Submission
		expected  bool
	}{
		{
			name:      "higher score wins",
			candidate: sub("a", "u1", "p1", 80, 2),
			incumbent: sub("b", "u1", "p1", 50, 1),
			expected:  true,
		},
		{
			name:      "lower score loses",
			candidate: sub("a", "u1", "p1", 50, 2),
			incumbent: sub("b", "u1", "p1", 80, 1),
			expected:  false,
		},
		{
			name:      "equal score, earlier timestamp wins",
			candidate: sub("a", "u1", "p1", 60, 3),
			incumbent: sub("b", "u1", "p1", 60, 5),
			expected:  true,
		},
		{
			name:      "equal score, later timestamp loses",
			candidate: sub("a", "u1", "p1", 80, 3),
			incumbent: sub("b", "u1", "p1", 80, 2),
			expected:  false,
		},
		{
			name:      "identical candidate loses",
			candidate: sub("a", "u1", "p1", 80, 2),
			incumbent: sub("a", "u1", "p1", 80, 2),
			expected:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Better(&tc.candidate, &tc.incumbent))
		})
	}
}

func TestReduce_SingleBestPerUser(t *testing.T) {
	// u1 attempted two problems: the leaderboard shows the best one, not the sum
	subs := []models.Submission{
		sub("a", "u1", "p1", 90, 1),
		sub("b", "u1", "p2", 70, 2),
		sub("c", "u2", "p1", 80, 3),
	}

	entries, err := Reduce(subs)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "u1", entries[0].UserID)
	assert.Equal(t, 90, entries[0].Score)
	assert.Equal(t, "p1", entries[0].ProblemID)
	assert.Equal(t, 1, entries[0].Rank)

	assert.Equal(t, "u2", entries[1].UserID)
	assert.Equal(t, 80, entries[1].Score)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestReduce_TiesBrokenByTimestamp(t *testing.T) {
	subs := []models.Submission{
		sub("a", "u1", "p1", 60, 10),
		sub("b", "u2", "p1", 60, 4),
		sub("c", "u3", "p1", 60, 7),
	}

	entries, err := Reduce(subs)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, "u3", entries[1].UserID)
	assert.Equal(t, "u1", entries[2].UserID)
}

func TestReduce_EqualBestsPickEarlier(t *testing.T) {
	// same user, equal score on two problems: earlier timestamp represents them
	subs := []models.Submission{
		sub("a", "u1", "p1", 60, 5),
		sub("b", "u1", "p2", 60, 3),
	}

	entries, err := Reduce(subs)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p2", entries[0].ProblemID)
	assert.Equal(t, int64(3), entries[0].Timestamp)
}

func TestReduce_Deterministic(t *testing.T) {
	subs := []models.Submission{
		sub("a", "u1", "p1", 50, 1),
		sub("b", "u2", "p1", 50, 1),
		sub("c", "u3", "p2", 50, 1),
		sub("d", "u4", "p2", 10, 9),
	}

	first, err := Reduce(subs)
	require.NoError(t, err)
	second, err := Reduce(subs)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	users := make(map[string]bool)
	for _, e := range first {
		assert.False(t, users[e.UserID], "duplicate user %s in leaderboard", e.UserID)
		users[e.UserID] = true
	}
}

func TestReduce_EmptyInput(t *testing.T) {
	entries, err := Reduce(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReduce_DuplicatePairFails(t *testing.T) {
	subs := []models.Submission{
		sub("a", "u1", "p1", 50, 1),
		sub("b", "u1", "p1", 60, 2),
	}

	_, err := Reduce(subs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistentStore)
}
