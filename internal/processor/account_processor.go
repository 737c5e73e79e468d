package processor

import (
	"context"
	"fmt"
	"log/slog"
	"retail_bank/internal/domain"
	"retail_bank/internal/repository"
	"retail_bank/pkg/metrics"
	"retail_bank/pkg/validator"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// EventPublisher receives account events after a command succeeds.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.AccountEvent) error
}

type WithdrawResult struct {
	Account    *domain.Account
	Downgraded bool
}

type Option func(*AccountProcessor)

func WithPublisher(p EventPublisher) Option {
	return func(ap *AccountProcessor) { ap.publisher = p }
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(ap *AccountProcessor) { ap.collector = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(ap *AccountProcessor) {
		if l != nil {
			ap.logger = l
		}
	}
}

// WithClock replaces time.Now as the source of "today".
func WithClock(clock func() time.Time) Option {
	return func(ap *AccountProcessor) { ap.clock = clock }
}

type AccountProcessor struct {
	store      repository.AccountStore
	archive    repository.ArchiveRepository
	issuer     *domain.NumberIssuer
	validator  *validator.AccountValidator
	statements *StatementEngine
	publisher  EventPublisher
	collector  *metrics.MetricsCollector
	clock      func() time.Time

	// mu makes each command atomic: check-then-insert on open and
	// find-then-mutate on close cannot interleave.
	mu sync.Mutex

	metricsMu sync.RWMutex
	metrics   map[string]int
	logger    *slog.Logger
}

func NewAccountProcessor(
	store repository.AccountStore,
	archive repository.ArchiveRepository,
	opts ...Option,
) *AccountProcessor {
	p := &AccountProcessor{
		store:     store,
		archive:   archive,
		issuer:    domain.NewNumberIssuer(),
		validator: validator.NewAccountValidator(),
		clock:     time.Now,
		metrics:   make(map[string]int),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.statements = NewStatementEngine(store, p.logger)
	return p
}

func (p *AccountProcessor) Today() domain.Date {
	return domain.DateOf(p.clock())
}

func (p *AccountProcessor) Open(ctx context.Context, req domain.OpenRequest) (*domain.Account, error) {
	start := time.Now()
	defer p.observe("open", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.Today()
	if req.Type == domain.CertificateDeposit && req.OpenDate.IsZero() {
		req.OpenDate = today
	}

	if err := p.validator.ValidateOpen(req, today); err != nil {
		p.recordMetric("open_rejected", 1)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if p.store.ContainsHolder(ctx, req.Holder, req.Type) {
		p.recordMetric("open_rejected", 1)
		return nil, fmt.Errorf("%w: %s is already in the database", repository.ErrDuplicate, req.Holder)
	}

	number, err := p.issuer.Issue(req.Branch, req.Type)
	if err != nil {
		return nil, err
	}

	var account *domain.Account
	switch req.Type {
	case domain.Checking:
		account = domain.NewChecking(number, req.Holder, req.Branch)
	case domain.CollegeChecking:
		account = domain.NewCollegeChecking(number, req.Holder, req.Branch, req.Campus)
	case domain.Savings:
		loyal := p.store.ContainsHolder(ctx, req.Holder, domain.Checking)
		account = domain.NewSavings(number, req.Holder, req.Branch, loyal)
	case domain.MoneyMarket:
		account = domain.NewMoneyMarket(number, req.Holder, req.Branch)
	case domain.CertificateDeposit:
		account = domain.NewCertificateDeposit(number, req.Holder, req.Branch, req.Term, req.OpenDate)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAccountType, req.Type)
	}

	opened := today
	if req.Type == domain.CertificateDeposit {
		opened = req.OpenDate
	}
	if err := account.Deposit(req.Amount, domain.Posting{Date: opened, Location: req.Branch, FromFile: req.FromFile}); err != nil {
		return nil, err
	}

	if err := p.store.Add(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to add account: %w", err)
	}

	p.logger.InfoContext(ctx, "Account opened",
		slog.String("account", number.String()),
		slog.String("type", string(req.Type)),
		slog.String("branch", req.Branch.String()),
		slog.String("holder", req.Holder.String()),
		slog.String("amount", req.Amount.StringFixed(2)))

	p.recordMetric("accounts_opened", 1)
	if p.collector != nil {
		p.collector.RecordOpen(string(req.Type))
	}
	p.updateGauges(ctx)
	p.publish(ctx, domain.NewAccountEvent(domain.EventAccountOpened, account, "Account opened").
		With("amount", req.Amount.StringFixed(2)))

	return account.Clone(), nil
}

func (p *AccountProcessor) Find(ctx context.Context, number domain.AccountNumber) (*domain.Account, error) {
	return p.store.Find(ctx, number)
}

// Close archives one account. A zero date closes as of today.
func (p *AccountProcessor) Close(ctx context.Context, number domain.AccountNumber, date domain.Date) (domain.ArchivedAccount, error) {
	start := time.Now()
	defer p.observe("close", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	if date.IsZero() {
		date = p.Today()
	}
	if err := p.validator.ValidateCloseDate(date, p.Today()); err != nil {
		return domain.ArchivedAccount{}, fmt.Errorf("validation failed: %w", err)
	}

	account, err := p.store.Find(ctx, number)
	if err != nil {
		return domain.ArchivedAccount{}, err
	}
	losing := p.loyalSavings(ctx, account)

	entry, err := p.store.Close(ctx, number, date)
	if err != nil {
		return domain.ArchivedAccount{}, fmt.Errorf("failed to close account: %w", err)
	}

	p.afterClose(ctx, entry)
	p.loyaltyLost(ctx, losing)
	p.updateGauges(ctx)
	return entry, nil
}

// CloseHolder archives every account the holder owns.
func (p *AccountProcessor) CloseHolder(ctx context.Context, holder domain.Profile, date domain.Date) ([]domain.ArchivedAccount, error) {
	start := time.Now()
	defer p.observe("close", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	if date.IsZero() {
		date = p.Today()
	}
	if err := p.validator.ValidateCloseDate(date, p.Today()); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	closed, err := p.store.CloseHolder(ctx, holder, date)
	if err != nil {
		return nil, fmt.Errorf("failed to close accounts: %w", err)
	}
	for _, entry := range closed {
		p.afterClose(ctx, entry)
	}
	p.updateGauges(ctx)
	return closed, nil
}

// loyalSavings lists the savings accounts that lose loyalty when account,
// a checking account, is closed.
func (p *AccountProcessor) loyalSavings(ctx context.Context, account *domain.Account) []*domain.Account {
	if account.Type != domain.Checking {
		return nil
	}
	owned, err := p.store.FindHolder(ctx, account.Holder)
	if err != nil {
		return nil
	}
	var result []*domain.Account
	for _, a := range owned {
		if a.Type == domain.Savings && a.Loyal {
			result = append(result, a)
		}
	}
	return result
}

func (p *AccountProcessor) loyaltyLost(ctx context.Context, accounts []*domain.Account) {
	for _, a := range accounts {
		p.logger.InfoContext(ctx, "Savings loyalty removed",
			slog.String("account", a.Number.String()),
			slog.String("holder", a.Holder.String()))
		p.publish(ctx, domain.NewAccountEvent(domain.EventLoyaltyLost, a, "Savings loyalty removed"))
	}
}

func (p *AccountProcessor) afterClose(ctx context.Context, entry domain.ArchivedAccount) {
	account := entry.Account
	p.logger.InfoContext(ctx, "Account closed",
		slog.String("account", account.Number.String()),
		slog.String("type", string(account.Type)),
		slog.String("closed_on", entry.ClosedOn.String()),
		slog.String("interest", entry.Interest.StringFixed(2)),
		slog.String("penalty", entry.Penalty.StringFixed(2)))

	p.recordMetric("accounts_closed", 1)
	if p.collector != nil {
		p.collector.RecordClose(string(account.Type))
	}
	p.publish(ctx, domain.NewAccountEvent(domain.EventAccountClosed, account, "Account closed").
		With("interest", entry.Interest.StringFixed(2)).
		With("penalty", entry.Penalty.StringFixed(2)))
}

func (p *AccountProcessor) posting(ctx context.Context, number domain.AccountNumber, at domain.Posting) (domain.Posting, error) {
	if at.Date.IsZero() {
		at.Date = p.Today()
	}
	if at.Location == "" {
		account, err := p.store.Find(ctx, number)
		if err != nil {
			return at, err
		}
		at.Location = account.Branch
	}
	return at, nil
}

// Deposit credits the account. A zero posting date means today and an empty
// location means the account's own branch.
func (p *AccountProcessor) Deposit(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (*domain.Account, error) {
	start := time.Now()
	defer p.observe("deposit", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.deposit(ctx, number, amount, at)
}

func (p *AccountProcessor) deposit(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (*domain.Account, error) {
	if err := p.validator.ValidateAmount(amount); err != nil {
		p.recordTransaction(string(domain.EventDeposit), false)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	at, err := p.posting(ctx, number, at)
	if err != nil {
		p.recordTransaction(string(domain.EventDeposit), false)
		return nil, err
	}

	account, err := p.store.Deposit(ctx, number, amount, at)
	if err != nil {
		p.recordTransaction(string(domain.EventDeposit), false)
		return nil, err
	}

	p.logger.InfoContext(ctx, "Deposit completed successfully",
		slog.String("account", number.String()),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("balance", account.Balance.StringFixed(2)),
		slog.Bool("from_file", at.FromFile))

	p.recordTransaction(string(domain.EventDeposit), true)
	p.publish(ctx, domain.NewAccountEvent(domain.EventDeposit, account, "Deposit posted").
		With("amount", amount.StringFixed(2)))
	return account, nil
}

// Withdraw debits the account. A money market account that falls under its
// minimum becomes a savings account and the result reports it.
func (p *AccountProcessor) Withdraw(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (WithdrawResult, error) {
	start := time.Now()
	defer p.observe("withdraw", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.withdraw(ctx, number, amount, at)
}

func (p *AccountProcessor) withdraw(ctx context.Context, number domain.AccountNumber, amount decimal.Decimal, at domain.Posting) (WithdrawResult, error) {
	if err := p.validator.ValidateAmount(amount); err != nil {
		p.recordTransaction(string(domain.EventWithdrawal), false)
		return WithdrawResult{}, fmt.Errorf("validation failed: %w", err)
	}

	at, err := p.posting(ctx, number, at)
	if err != nil {
		p.recordTransaction(string(domain.EventWithdrawal), false)
		return WithdrawResult{}, err
	}

	account, downgraded, err := p.store.Withdraw(ctx, number, amount, at)
	if err != nil {
		p.recordTransaction(string(domain.EventWithdrawal), false)
		return WithdrawResult{}, err
	}

	p.logger.InfoContext(ctx, "Withdrawal completed successfully",
		slog.String("account", number.String()),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("balance", account.Balance.StringFixed(2)),
		slog.Bool("from_file", at.FromFile))

	p.recordTransaction(string(domain.EventWithdrawal), true)
	p.publish(ctx, domain.NewAccountEvent(domain.EventWithdrawal, account, "Withdrawal posted").
		With("amount", amount.StringFixed(2)))

	if downgraded {
		p.logger.InfoContext(ctx, "Money market downgraded to savings",
			slog.String("account", number.String()),
			slog.String("balance", account.Balance.StringFixed(2)))
		p.recordMetric("downgrades", 1)
		if p.collector != nil {
			p.collector.RecordDowngrade()
		}
		p.publish(ctx, domain.NewAccountEvent(domain.EventDowngraded, account, "Money market downgraded to savings"))
	}

	return WithdrawResult{Account: account, Downgraded: downgraded}, nil
}

// ApplyActivity posts one historical activity record.
func (p *AccountProcessor) ApplyActivity(ctx context.Context, rec domain.ActivityRecord) (*domain.Account, error) {
	start := time.Now()
	defer p.observe("activity", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	at := domain.Posting{Date: rec.Date, Location: rec.Location, FromFile: true}
	switch rec.Kind {
	case domain.ActivityDeposit:
		return p.deposit(ctx, rec.Number, rec.Amount, at)
	case domain.ActivityWithdrawal:
		res, err := p.withdraw(ctx, rec.Number, rec.Amount, at)
		return res.Account, err
	default:
		return nil, fmt.Errorf("unknown activity kind: %s", rec.Kind)
	}
}

func (p *AccountProcessor) List(ctx context.Context, order domain.Order) ([]domain.Group, error) {
	return p.store.List(ctx, order)
}

func (p *AccountProcessor) Archive(ctx context.Context) ([]domain.ArchivedAccount, error) {
	return p.archive.List(ctx)
}

// Statements runs one monthly cycle over every open account.
func (p *AccountProcessor) Statements(ctx context.Context) ([]domain.Statement, error) {
	start := time.Now()
	defer p.observe("statements", start)

	p.mu.Lock()
	defer p.mu.Unlock()

	result, err := p.statements.Run(ctx)
	for _, st := range result.Statements {
		if p.collector != nil {
			p.collector.RecordStatement(st.Interest.InexactFloat64(), st.Fee.InexactFloat64())
		}
		p.publish(ctx, domain.NewStatementEvent(st))
	}
	p.recordMetric("statements", len(result.Statements))

	p.logger.InfoContext(ctx, "Statements applied",
		slog.Int("accounts", len(result.Statements)),
		slog.Int("failed", len(result.Failed)))

	return result.Statements, err
}

// GetMetrics returns a copy of the per-command counters.
func (p *AccountProcessor) GetMetrics() map[string]int {
	p.metricsMu.RLock()
	defer p.metricsMu.RUnlock()

	out := make(map[string]int, len(p.metrics))
	for k, v := range p.metrics {
		out[k] = v
	}
	return out
}

func (p *AccountProcessor) recordMetric(key string, value int) {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics[key] += value
}

func (p *AccountProcessor) recordTransaction(kind string, success bool) {
	if success {
		p.recordMetric(kind+"s", 1)
	} else {
		p.recordMetric(kind+"s_rejected", 1)
	}
	if p.collector != nil {
		p.collector.RecordTransaction(kind, success)
	}
}

func (p *AccountProcessor) observe(command string, start time.Time) {
	if p.collector != nil {
		p.collector.ObserveCommand(command, time.Since(start))
	}
}

func (p *AccountProcessor) updateGauges(ctx context.Context) {
	if p.collector != nil {
		p.collector.SetAccountCounts(p.store.Len(ctx), p.archive.Len(ctx))
	}
}

func (p *AccountProcessor) publish(ctx context.Context, event domain.AccountEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish event",
			slog.String("type", string(event.Type)),
			slog.String("account", event.Account.String()),
			slog.String("error", err.Error()))
	}
}
