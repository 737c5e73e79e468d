package processor

import (
	"context"
	"fmt"
	"log/slog"
	"retail_bank/internal/domain"
	"retail_bank/internal/repository"
	"slices"
)

// StatementEngine runs the monthly cycle: every open account earns its
// monthly interest, pays its fee, and starts a fresh activity list.
type StatementEngine struct {
	store  repository.AccountStore
	logger *slog.Logger
}

type StatementResult struct {
	Statements []domain.Statement
	Failed     map[domain.AccountNumber]error
}

func NewStatementEngine(store repository.AccountStore, logger *slog.Logger) *StatementEngine {
	if logger == nil {
		logger = slog.Default()
	}

	return &StatementEngine{
		store:  store,
		logger: logger,
	}
}

// Run applies one statement to each account. An account whose rules cannot
// be evaluated is skipped and reported in Failed; the others still post.
func (e *StatementEngine) Run(ctx context.Context) (StatementResult, error) {
	result := StatementResult{Failed: make(map[domain.AccountNumber]error)}

	numbers := e.store.Numbers(ctx)
	slices.SortFunc(numbers, domain.AccountNumber.Compare)

	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var st domain.Statement
		err := e.store.Update(ctx, number, func(a *domain.Account) error {
			var err error
			st, err = a.ApplyStatement()
			return err
		})
		if err != nil {
			e.logger.ErrorContext(ctx, "Failed to apply statement",
				slog.String("account", number.String()),
				slog.String("error", err.Error()))
			result.Failed[number] = err
			continue
		}

		result.Statements = append(result.Statements, st)
		e.logger.DebugContext(ctx, "Statement applied",
			slog.String("account", number.String()),
			slog.String("interest", st.Interest.StringFixed(2)),
			slog.String("fee", st.Fee.StringFixed(2)),
			slog.String("balance", st.Balance.StringFixed(2)))
	}

	if len(result.Failed) > 0 && len(result.Statements) == 0 {
		return result, fmt.Errorf("no statements applied: %d accounts failed", len(result.Failed))
	}
	return result, nil
}
