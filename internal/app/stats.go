package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"mindmaster/internal/state"
)

type LevelReport struct {
	LevelID  int
	Attempts int
	Solves   int
	Best     string
}

type StatsReport struct {
	Summary state.Summary
	Levels  []LevelReport
}

// ReadStats loads lifetime stats without recording a new session.
func ReadStats(ctx context.Context, cfg Config) (StatsReport, error) {
	if err := cfg.Validate(); err != nil {
		return StatsReport{}, err
	}
	path := filepath.Join(cfg.DataDir, statsFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return StatsReport{}, nil
		}
		return StatsReport{}, err
	}
	store, err := openStats(ctx, cfg.DataDir, "")
	if err != nil {
		return StatsReport{}, err
	}
	defer store.Close()

	sum, err := store.GetSummary(ctx)
	if err != nil {
		return StatsReport{}, fmt.Errorf("stats summary: %w", err)
	}
	perLevel, err := store.GetLevelStats(ctx)
	if err != nil {
		return StatsReport{}, fmt.Errorf("level stats: %w", err)
	}
	report := StatsReport{Summary: sum}
	for _, ls := range perLevel {
		report.Levels = append(report.Levels, LevelReport{
			LevelID:  ls.LevelID,
			Attempts: ls.Attempts,
			Solves:   ls.Solves,
			Best:     formatBest(ls.BestTimeMS),
		})
	}
	sort.Slice(report.Levels, func(i, j int) bool { return report.Levels[i].LevelID < report.Levels[j].LevelID })
	return report, nil
}
