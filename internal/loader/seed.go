package loader

import (
	"context"
	"fmt"
	"log/slog"
	"retail_bank/internal/domain"
)

// Target receives seeded accounts and activities.
type Target interface {
	Open(ctx context.Context, req domain.OpenRequest) (*domain.Account, error)
	ApplyActivity(ctx context.Context, rec domain.ActivityRecord) (*domain.Account, error)
}

// SeedResult counts what a seed run applied and what it skipped.
type SeedResult struct {
	Opened   int
	Applied  int
	Rejected int
}

// Seed opens every account in accountsPath, then posts every activity in
// activitiesPath. Either path may be empty. A malformed file aborts the run;
// a record the bank rejects is logged and skipped.
func Seed(ctx context.Context, target Target, accountsPath, activitiesPath string, logger *slog.Logger) (SeedResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var result SeedResult

	if accountsPath != "" {
		lines, err := LoadAccountsFile(accountsPath)
		if err != nil {
			return result, fmt.Errorf("seed accounts from %s: %w", accountsPath, err)
		}
		for _, l := range lines {
			if _, err := target.Open(ctx, l.Request); err != nil {
				result.Rejected++
				logger.WarnContext(ctx, "Seed account rejected",
					slog.String("file", accountsPath),
					slog.Int("line", l.Line),
					slog.String("error", err.Error()))
				continue
			}
			result.Opened++
		}
	}

	if activitiesPath != "" {
		lines, err := LoadActivitiesFile(activitiesPath)
		if err != nil {
			return result, fmt.Errorf("seed activities from %s: %w", activitiesPath, err)
		}
		for _, l := range lines {
			if _, err := target.ApplyActivity(ctx, l.Record); err != nil {
				result.Rejected++
				logger.WarnContext(ctx, "Seed activity rejected",
					slog.String("file", activitiesPath),
					slog.Int("line", l.Line),
					slog.String("error", err.Error()))
				continue
			}
			result.Applied++
		}
	}

	logger.InfoContext(ctx, "Seed data loaded",
		slog.Int("opened", result.Opened),
		slog.Int("applied", result.Applied),
		slog.Int("rejected", result.Rejected))
	return result, nil
}
