package memory

import (
	"context"
	"fmt"
	"retail_bank/internal/domain"
	"retail_bank/internal/repository"
	"sync"
)

// Archive holds closed accounts. It only grows; List returns the most
// recently closed account first.
type Archive struct {
	mu      sync.RWMutex
	entries []domain.ArchivedAccount
	closed  map[domain.AccountNumber]struct{}
}

func NewArchive() *Archive {
	return &Archive{
		closed: make(map[domain.AccountNumber]struct{}),
	}
}

func (a *Archive) Add(ctx context.Context, entry domain.ArchivedAccount) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	number := entry.Account.Number
	if _, exists := a.closed[number]; exists {
		return fmt.Errorf("%w: archived account %s", repository.ErrDuplicate, number)
	}

	a.entries = append(a.entries, entry)
	a.closed[number] = struct{}{}
	return nil
}

func (a *Archive) has(number domain.AccountNumber) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, exists := a.closed[number]
	return exists
}

func (a *Archive) List(ctx context.Context) ([]domain.ArchivedAccount, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]domain.ArchivedAccount, 0, len(a.entries))
	for i := len(a.entries) - 1; i >= 0; i-- {
		entry := a.entries[i]
		entry.Account = entry.Account.Clone()
		result = append(result, entry)
	}
	return result, nil
}

func (a *Archive) Len(ctx context.Context) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
