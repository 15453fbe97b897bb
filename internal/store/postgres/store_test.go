package postgres

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/ranking"
	"github.com/shrimpsizemoose/semla/internal/store"
)

// setupTestDB starts a disposable Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	postgres, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := postgres.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		postgres.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func candidate(id, user, problem string, score int, ts int64) *models.Submission {
	return &models.Submission{
		ID:        id,
		UserID:    user,
		ProblemID: problem,
		Score:     score,
		Verdict:   models.VerdictAccepted,
		Timestamp: ts,
	}
}

func TestConditionalUpsert(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("insert then improve then reject", func(t *testing.T) {
		applied, err := s.UpsertScoreIfBetter(candidate("00000000-0000-0000-0000-000000000001", "u1", "p1", 50, 1))
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = s.UpsertScoreIfBetter(candidate("00000000-0000-0000-0000-000000000002", "u1", "p1", 80, 2))
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = s.UpsertScoreIfBetter(candidate("00000000-0000-0000-0000-000000000003", "u1", "p1", 80, 3))
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := s.GetScore("u1", "p1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 80, got.Score)
		assert.Equal(t, int64(2), got.Timestamp)
		assert.Equal(t, "00000000-0000-0000-0000-000000000001", got.ID)
	})

	t.Run("tie broken by earlier timestamp", func(t *testing.T) {
		applied, err := s.UpsertScoreIfBetter(candidate("00000000-0000-0000-0000-000000000004", "u2", "p1", 60, 5))
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = s.UpsertScoreIfBetter(candidate("00000000-0000-0000-0000-000000000005", "u2", "p1", 60, 3))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := s.GetScore("u2", "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Timestamp)
	})
}

func TestConcurrentUpsertsSamePair(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	// many racing candidates for one pair: the winner must be the best
	// candidate overall, not the last writer
	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := candidate(
				fmt.Sprintf("00000000-0000-0000-0000-0000000001%02d", i),
				"racer", "p1",
				(i*7)%50,
				int64(100-i),
			)
			_, err := s.UpsertScoreIfBetter(c)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// best score is 49 (i=7), unique, so timestamp tie-break never fires
	got, err := s.GetScore("racer", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 49, got.Score)
	assert.Equal(t, int64(93), got.Timestamp)
}

func TestLeaderboardAgainstPureReduction(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	seed := []*models.Submission{
		candidate("00000000-0000-0000-0000-000000000021", "u1", "p1", 90, 1),
		candidate("00000000-0000-0000-0000-000000000022", "u1", "p2", 70, 2),
		candidate("00000000-0000-0000-0000-000000000023", "u2", "p2", 90, 4),
		candidate("00000000-0000-0000-0000-000000000024", "u3", "p1", 15, 3),
	}
	for _, c := range seed {
		_, err := s.UpsertScoreIfBetter(c)
		require.NoError(t, err)
	}

	rows, err := s.ListScores()
	require.NoError(t, err)

	want, err := ranking.Reduce(rows)
	require.NoError(t, err)

	got, err := s.FetchLeaderboard()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.Len(t, got, 3)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, 90, got[0].Score)
}

func TestUserUniqueness(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now().Unix()
	user := &models.User{
		Username:     "john.doe",
		Email:        "john@example.com",
		PasswordHash: "$2a$10$notarealhash",
		CreatedAt:    now,
	}
	require.NoError(t, s.CreateUser(user))

	dup := &models.User{Username: "john.doe", Email: "x@example.com", PasswordHash: "x", CreatedAt: now}
	assert.ErrorIs(t, s.CreateUser(dup), store.ErrUsernameTaken)

	dup = &models.User{Username: "jane.doe", Email: "john@example.com", PasswordHash: "x", CreatedAt: now}
	assert.ErrorIs(t, s.CreateUser(dup), store.ErrEmailTaken)
}
