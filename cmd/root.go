package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptive/internal/config"
	"github.com/abhisek/adaptive/internal/logger"
	"github.com/abhisek/adaptive/internal/store"
)

var (
	cfg *config.Config
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "adaptive",
	Short: "Adaptive learning engine",
	Long:  "adaptive picks quiz difficulty, schedules spaced reviews and flags weak topics for a learner.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c

		l, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a YAML config file")
	pf.String("db", "", "Path to SQLite database file (overrides ADAPTIVE_DB env var)")
	pf.String("log-mode", "dev", "Log mode: dev or prod")
	pf.Int("max-retries", 5, "Compare-and-swap attempts per graded review")
	pf.Int("concurrency", 4, "Items graded in parallel by a batch")
	pf.String("at", "", "Evaluation instant as RFC3339 (default: now)")

	rootCmd.AddCommand(difficultyCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(weaknessCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the configured database path (--db, config file or
// ADAPTIVE_DB__PATH), then ADAPTIVE_DB, then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg != nil && cfg.DB.Path != "" {
		return cfg.DB.Path, store.EnsureDir(cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

// evalTime returns the --at instant, or the current time.
func evalTime(cmd *cobra.Command) (time.Time, error) {
	at, _ := cmd.Flags().GetString("at")
	if at == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", at, err)
	}
	return t, nil
}
