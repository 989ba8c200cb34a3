package core

// scheduler.go provides background maintenance of generated reports.
//
// The retention sweeper runs periodically to:
//  1. Remove run directories under the output directory older than MaxAge
//  2. Prune run history entries started before the same cutoff
//
// It is long-running and context-aware. Failures are logged and retried on
// the next tick; they never stop the application.

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RetentionConfig holds configuration for the retention sweeper.
type RetentionConfig struct {
	MaxAge        time.Duration // Age after which a run is removed (default: 24h)
	CheckInterval time.Duration // How often to sweep (default: 1h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Hour
	}
	return c
}

// StartRetentionSweeper sweeps immediately, then every CheckInterval until
// ctx is cancelled.
func (s *Service) StartRetentionSweeper(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention sweeper started",
		"output_dir", s.cfg.OutputDir,
		"max_age", cfg.MaxAge.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.SweepOutputs(ctx, time.Now().Add(-cfg.MaxAge))

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case now := <-ticker.C:
			s.SweepOutputs(ctx, now.Add(-cfg.MaxAge))
		}
	}
}

// SweepResult reports what one sweep removed.
type SweepResult struct {
	RunDirsRemoved int
	RunsPruned     int64
}

// SweepOutputs removes run directories last modified before cutoff and
// prunes history older than cutoff. Only directories named by a run ID are
// touched.
func (s *Service) SweepOutputs(ctx context.Context, cutoff time.Time) SweepResult {
	start := time.Now()
	var res SweepResult

	entries, err := os.ReadDir(s.cfg.OutputDir)
	if err != nil && !os.IsNotExist(err) {
		slog.Error("read output dir failed", "dir", s.cfg.OutputDir, "error", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.cfg.OutputDir, entry.Name())); err != nil {
			slog.Error("remove run dir failed", "run_id", entry.Name(), "error", err)
			continue
		}
		res.RunDirsRemoved++
	}

	pruned, err := s.runs.PruneRuns(ctx, cutoff)
	if err != nil {
		slog.Error("prune run history failed", "error", err)
	}
	res.RunsPruned = pruned

	slog.Info("retention sweep completed",
		"run_dirs_removed", res.RunDirsRemoved,
		"runs_pruned", res.RunsPruned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}
