// Command verify recomputes the leaderboard from raw score rows and
// compares it against the store's aggregation query. The two encode the
// same ordering rule in different places (Go and SQL), so drift between
// them is a bug worth catching from cron.
package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/ranking"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	store, err := app.NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		logger.Error.Fatalf("Failed to init store: %v", err)
	}
	defer store.Close()

	rows, err := store.ListScores()
	if err != nil {
		logger.Error.Fatalf("Failed to list scores: %v", err)
	}

	want, err := ranking.Reduce(rows)
	if err != nil {
		logger.Error.Fatalf("Score rows are inconsistent: %v", err)
	}

	got, err := store.FetchLeaderboard()
	if err != nil {
		logger.Error.Fatalf("Failed to fetch leaderboard: %v", err)
	}

	if len(want) != len(got) {
		logger.Error.Fatalf("Leaderboard drift: reduction has %d entries, query has %d", len(want), len(got))
	}

	drift := 0
	for i := range want {
		if want[i] != got[i] {
			drift++
			logger.Error.Printf(
				"Drift at rank %d: reduction %s/%s score=%d ts=%d, query %s/%s score=%d ts=%d",
				i+1,
				want[i].UserID, want[i].ProblemID, want[i].Score, want[i].Timestamp,
				got[i].UserID, got[i].ProblemID, got[i].Score, got[i].Timestamp,
			)
		}
	}
	if drift > 0 {
		logger.Error.Printf("Leaderboard drift in %d of %d entries", drift, len(want))
		os.Exit(1)
	}

	logger.Info.Printf("Leaderboard consistent: %d entries from %d score rows", len(got), len(rows))
}
