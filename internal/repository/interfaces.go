package repository

import (
	"context"
	"errors"
	"retail_bank/internal/domain"

	"github.com/shopspring/decimal"
)

type AccountStore interface {
	Add(ctx context.Context, account *domain.Account) error
	Find(ctx context.Context, number domain.AccountNumber) (*domain.Account, error)
	FindHolder(ctx context.Context, holder domain.Profile) ([]*domain.Account, error)
	Contains(ctx context.Context, number domain.AccountNumber) bool
	ContainsHolder(ctx context.Context, holder domain.Profile, accountType domain.AccountType) bool
	Deposit(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (*domain.Account, error)
	Withdraw(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (*domain.Account, bool, error)
	Update(ctx context.Context, number domain.AccountNumber, fn func(*domain.Account) error) error
	Close(ctx context.Context, number domain.AccountNumber, closeDate domain.Date) (domain.ArchivedAccount, error)
	CloseHolder(ctx context.Context, holder domain.Profile, closeDate domain.Date) ([]domain.ArchivedAccount, error)
	List(ctx context.Context, order domain.Order) ([]domain.Group, error)
	Numbers(ctx context.Context) []domain.AccountNumber
	Len(ctx context.Context) int
}

type ArchiveRepository interface {
	Add(ctx context.Context, entry domain.ArchivedAccount) error
	List(ctx context.Context) ([]domain.ArchivedAccount, error)
	Len(ctx context.Context) int
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
