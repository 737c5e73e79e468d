package memory

import (
	"context"
	"fmt"
	"retail_bank/internal/domain"
	"retail_bank/internal/repository"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	notFound = -1
	growSize = 4
)

// AccountStore keeps open accounts in a slice that grows four slots at a
// time. Removal moves the last account into the freed slot, so insertion
// order is not preserved across closes.
type AccountStore struct {
	mu       sync.RWMutex
	accounts []*domain.Account
	archive  *Archive
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make([]*domain.Account, 0, growSize),
		archive:  NewArchive(),
	}
}

func (s *AccountStore) Archive() *Archive {
	return s.archive
}

func (s *AccountStore) find(number domain.AccountNumber) int {
	for i, a := range s.accounts {
		if a.Number == number {
			return i
		}
	}
	return notFound
}

func (s *AccountStore) grow() {
	grown := make([]*domain.Account, len(s.accounts), cap(s.accounts)+growSize)
	copy(grown, s.accounts)
	s.accounts = grown
}

// Add rejects an account that shares a number with a stored one, or whose
// holder already has an account of the same type.
func (s *AccountStore) Add(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if domain.SameAccount(a, account) {
			return fmt.Errorf("%w: %s account for %s", repository.ErrDuplicate, account.Type, account.Holder)
		}
	}

	if len(s.accounts) == cap(s.accounts) {
		s.grow()
	}
	s.accounts = append(s.accounts, account)
	return nil
}

func (s *AccountStore) Find(ctx context.Context, number domain.AccountNumber) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.find(number)
	if i == notFound {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, number)
	}
	return s.accounts[i].Clone(), nil
}

func (s *AccountStore) FindHolder(ctx context.Context, holder domain.Profile) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Account
	for _, a := range s.accounts {
		if a.Holder.Equal(holder) {
			result = append(result, a.Clone())
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: holder %s", repository.ErrNotFound, holder)
	}
	return result, nil
}

func (s *AccountStore) Contains(ctx context.Context, number domain.AccountNumber) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(number) != notFound
}

func (s *AccountStore) ContainsHolder(ctx context.Context, holder domain.Profile, accountType domain.AccountType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Type == accountType && a.Holder.Equal(holder) {
			return true
		}
	}
	return false
}

func (s *AccountStore) Deposit(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(number)
	if i == notFound {
		return nil, fmt.Errorf("%w: account %s", repository.ErrNotFound, number)
	}
	if err := s.accounts[i].Deposit(amount, at); err != nil {
		return nil, err
	}
	return s.accounts[i].Clone(), nil
}

// Withdraw reports whether the withdrawal pushed a money market account
// under its minimum and turned it into a savings account.
func (s *AccountStore) Withdraw(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (*domain.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(number)
	if i == notFound {
		return nil, false, fmt.Errorf("%w: account %s", repository.ErrNotFound, number)
	}

	account := s.accounts[i]
	if err := account.Withdraw(amount, at); err != nil {
		return nil, false, err
	}
	downgraded := account.DowngradeToSavings()
	return account.Clone(), downgraded, nil
}

// Update runs fn against the stored account while holding the write lock.
func (s *AccountStore) Update(ctx context.Context, number domain.AccountNumber, fn func(*domain.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(number)
	if i == notFound {
		return fmt.Errorf("%w: account %s", repository.ErrNotFound, number)
	}
	return fn(s.accounts[i])
}

func (s *AccountStore) Close(ctx context.Context, number domain.AccountNumber, closeDate domain.Date) (domain.ArchivedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(number)
	if i == notFound {
		return domain.ArchivedAccount{}, fmt.Errorf("%w: account %s", repository.ErrNotFound, number)
	}
	entry, err := settle(s.accounts[i], closeDate)
	if err != nil {
		return domain.ArchivedAccount{}, err
	}
	if err := s.archive.Add(ctx, entry); err != nil {
		return domain.ArchivedAccount{}, err
	}
	s.removeAt(i)

	entry.Account = entry.Account.Clone()
	return entry, nil
}

// CloseHolder closes every account the holder owns, or none of them: closing
// interest and archive slots are checked for all accounts before any is
// removed.
func (s *AccountStore) CloseHolder(ctx context.Context, holder domain.Profile, closeDate domain.Date) ([]domain.ArchivedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settled := make(map[domain.AccountNumber]domain.ArchivedAccount)
	for _, a := range s.accounts {
		if !a.Holder.Equal(holder) {
			continue
		}
		entry, err := settle(a, closeDate)
		if err != nil {
			return nil, err
		}
		if s.archive.has(a.Number) {
			return nil, fmt.Errorf("%w: archived account %s", repository.ErrDuplicate, a.Number)
		}
		settled[a.Number] = entry
	}
	if len(settled) == 0 {
		return nil, fmt.Errorf("%w: holder %s", repository.ErrNotFound, holder)
	}

	closed := make([]domain.ArchivedAccount, 0, len(settled))
	for i := 0; i < len(s.accounts); {
		entry, ok := settled[s.accounts[i].Number]
		if !ok {
			i++
			continue
		}
		if err := s.archive.Add(ctx, entry); err != nil {
			return nil, err
		}
		// removeAt swaps the last account into slot i, so i is checked again.
		s.removeAt(i)
		closed = append(closed, entry)
	}

	for i := range closed {
		closed[i].Account = closed[i].Account.Clone()
	}
	return closed, nil
}

// settle computes the archive entry for closing account on closeDate
// without changing anything.
func settle(account *domain.Account, closeDate domain.Date) (domain.ArchivedAccount, error) {
	interest, penalty, err := account.CloseInterest(closeDate)
	if err != nil {
		return domain.ArchivedAccount{}, err
	}
	return domain.ArchivedAccount{
		Account:  account,
		ClosedOn: closeDate,
		Interest: interest,
		Penalty:  penalty,
	}, nil
}

// removeAt frees slot i and, for a checking account, strips loyalty from the
// holder's remaining savings accounts.
func (s *AccountStore) removeAt(i int) {
	account := s.accounts[i]

	last := len(s.accounts) - 1
	s.accounts[i] = s.accounts[last]
	s.accounts[last] = nil
	s.accounts = s.accounts[:last]

	if account.Type == domain.Checking {
		for _, a := range s.accounts {
			if a.Type == domain.Savings && a.Holder.Equal(account.Holder) {
				a.Loyal = false
			}
		}
	}
}

func (s *AccountStore) List(ctx context.Context, order domain.Order) ([]domain.Group, error) {
	s.mu.RLock()
	snapshot := make([]*domain.Account, len(s.accounts))
	for i, a := range s.accounts {
		snapshot[i] = a.Clone()
	}
	s.mu.RUnlock()

	return domain.GroupAccounts(snapshot, order), nil
}

func (s *AccountStore) Numbers(ctx context.Context) []domain.AccountNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := make([]domain.AccountNumber, len(s.accounts))
	for i, a := range s.accounts {
		numbers[i] = a.Number
	}
	return numbers
}

func (s *AccountStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
