package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/session"
	"github.com/abhisek/adaptive/internal/store"
)

// openService opens the store and builds the session service from config.
// The returned close func releases the database.
func openService() (*session.Service, func(), error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "path", dbPath)

	svc := session.NewService(st.ReviewRepo(), st.QuizRepo(), st.PerformanceRepo(), st.SnapshotRepo(), session.Options{
		MaxRetries:    cfg.Review.MaxRetries,
		Concurrency:   cfg.Review.Concurrency,
		HistoryWindow: cfg.Plan.HistoryWindow,
		Planner:       session.NewPlanner(cfg.Plan.ReviewSlots, cfg.Plan.RemediationSlots),
		Logger:        log,
	})
	return svc, func() { st.Close() }, nil
}

// readDocument reads the --file flag, "-" meaning stdin.
func readDocument(cmd *cobra.Command) ([]byte, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil, fmt.Errorf("--file is required")
	}
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// requireLearner returns --learner or an error.
func requireLearner(cmd *cobra.Command) (string, error) {
	learner, _ := cmd.Flags().GetString("learner")
	if learner == "" {
		return "", fmt.Errorf("--learner is required")
	}
	return learner, nil
}
