package domain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Checking           AccountType = "CHECKING"
	Savings            AccountType = "SAVINGS"
	MoneyMarket        AccountType = "MONEY_MARKET"
	CollegeChecking    AccountType = "COLLEGE_CHECKING"
	CertificateDeposit AccountType = "CERTIFICATE_DEPOSIT"
)

var accountTypeCodes = map[AccountType]string{
	Checking:           "01",
	Savings:            "02",
	MoneyMarket:        "03",
	CollegeChecking:    "04",
	CertificateDeposit: "05",
}

var accountTypeNames = map[AccountType]string{
	Checking:           "Checking",
	Savings:            "Savings",
	MoneyMarket:        "Money Market",
	CollegeChecking:    "College Checking",
	CertificateDeposit: "Certificate Deposit",
}

var accountTypeTokens = map[string]AccountType{
	"c":                  Checking,
	"checking":           Checking,
	"cc":                 CollegeChecking,
	"collegechecking":    CollegeChecking,
	"s":                  Savings,
	"savings":            Savings,
	"mm":                 MoneyMarket,
	"moneymarket":        MoneyMarket,
	"cd":                 CertificateDeposit,
	"certificatedeposit": CertificateDeposit,
}

// ParseAccountType accepts the short teller codes (C, CC, S, MM, CD) as well
// as the spelled-out names, case-insensitively.
func ParseAccountType(token string) (AccountType, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", " ", "").Replace(token))
	if t, ok := accountTypeTokens[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidAccountType, token)
}

func (t AccountType) Valid() bool {
	_, ok := accountTypeCodes[t]
	return ok
}

func (t AccountType) Code() string { return accountTypeCodes[t] }

func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// Compare orders account types by their two-digit code.
func (t AccountType) Compare(o AccountType) int {
	return strings.Compare(t.Code(), o.Code())
}

// AccountNumber is branch code (3) + type code (2) + sequence (4).
type AccountNumber string

func NewAccountNumber(b Branch, t AccountType, seq int) AccountNumber {
	return AccountNumber(fmt.Sprintf("%s%s%04d", b.Code(), t.Code(), seq))
}

func ParseAccountNumber(s string) (AccountNumber, error) {
	s = strings.TrimSpace(s)
	if len(s) != 9 {
		return "", fmt.Errorf("%w: %s", ErrInvalidAccountNumber, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %s", ErrInvalidAccountNumber, s)
		}
	}
	return AccountNumber(s), nil
}

func (n AccountNumber) Branch() (Branch, bool) {
	if len(n) != 9 {
		return "", false
	}
	return branchByCode(string(n[:3]))
}

func (n AccountNumber) TypeCode() string {
	if len(n) != 9 {
		return ""
	}
	return string(n[3:5])
}

// Compare is numeric order; every well-formed number has nine digits so the
// lexical comparison agrees.
func (n AccountNumber) Compare(o AccountNumber) int {
	if len(n) != len(o) {
		return cmpInt(len(n), len(o))
	}
	return strings.Compare(string(n), string(o))
}

func (n AccountNumber) String() string { return string(n) }

const (
	firstSequence = 1000
	lastSequence  = 9999
)

// NumberIssuer hands out account sequence numbers. One issuer is owned by
// whatever drives the store; there is no process-wide counter.
type NumberIssuer struct {
	mu   sync.Mutex
	next int
}

func NewNumberIssuer() *NumberIssuer {
	return &NumberIssuer{next: firstSequence}
}

func (i *NumberIssuer) Issue(b Branch, t AccountType) (AccountNumber, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.next > lastSequence {
		return "", ErrSequenceExhausted
	}
	n := NewAccountNumber(b, t, i.next)
	i.next++
	return n, nil
}

type ActivityKind string

const (
	ActivityDeposit    ActivityKind = "D"
	ActivityWithdrawal ActivityKind = "W"
)

func (k ActivityKind) String() string {
	if k == ActivityWithdrawal {
		return "withdrawal"
	}
	return "deposit"
}

type Activity struct {
	Date     Date            `json:"date"`
	Location Branch          `json:"location"`
	Kind     ActivityKind    `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	FromFile bool            `json:"from_file"`
}

// Posting carries where and when a deposit or withdrawal happened.
type Posting struct {
	Date     Date
	Location Branch
	FromFile bool
}

// Account is one of the five account kinds. Fields below Activities only
// carry meaning for the kinds noted beside them.
type Account struct {
	Number     AccountNumber   `json:"number"`
	Holder     Profile         `json:"holder"`
	Branch     Branch          `json:"branch"`
	Type       AccountType     `json:"type"`
	Balance    decimal.Decimal `json:"balance"`
	Activities []Activity      `json:"activities,omitempty"`

	Loyal       bool   `json:"loyal,omitempty"`       // Savings, MoneyMarket
	Withdrawals int    `json:"withdrawals,omitempty"` // MoneyMarket
	Campus      Campus `json:"campus,omitempty"`      // CollegeChecking
	Term        int    `json:"term,omitempty"`        // CertificateDeposit
	OpenDate    Date   `json:"open_date,omitempty"`   // CertificateDeposit
}

func NewChecking(number AccountNumber, holder Profile, branch Branch) *Account {
	return newAccount(number, holder, branch, Checking)
}

func NewCollegeChecking(number AccountNumber, holder Profile, branch Branch, campus Campus) *Account {
	a := newAccount(number, holder, branch, CollegeChecking)
	a.Campus = campus
	return a
}

// NewSavings takes loyalty from whether the holder already owns a checking
// account; deposits never change it afterwards.
func NewSavings(number AccountNumber, holder Profile, branch Branch, loyal bool) *Account {
	a := newAccount(number, holder, branch, Savings)
	a.Loyal = loyal
	return a
}

func NewMoneyMarket(number AccountNumber, holder Profile, branch Branch) *Account {
	return newAccount(number, holder, branch, MoneyMarket)
}

func NewCertificateDeposit(number AccountNumber, holder Profile, branch Branch, term int, opened Date) *Account {
	a := newAccount(number, holder, branch, CertificateDeposit)
	a.Term = term
	a.OpenDate = opened
	return a
}

func newAccount(number AccountNumber, holder Profile, branch Branch, t AccountType) *Account {
	return &Account{
		Number:  number,
		Holder:  holder,
		Branch:  branch,
		Type:    t,
		Balance: decimal.Zero,
	}
}

func (a *Account) Deposit(amount decimal.Decimal, at Posting) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	a.Balance = a.Balance.Add(amount)
	a.record(ActivityDeposit, amount, at)

	if a.Type == MoneyMarket && a.Balance.GreaterThanOrEqual(moneyMarketLoyaltyBalance) {
		a.Loyal = true
	}
	return nil
}

func (a *Account) Withdraw(amount decimal.Decimal, at Posting) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if a.Type == CertificateDeposit {
		return fmt.Errorf("%w: certificate deposit %s must be closed", ErrWithdrawalNotAllowed, a.Number)
	}
	if amount.GreaterThan(a.Balance) {
		return fmt.Errorf("%w: account %s", ErrInsufficientFunds, a.Number)
	}

	a.Balance = a.Balance.Sub(amount)
	a.record(ActivityWithdrawal, amount, at)

	if a.Type == MoneyMarket {
		a.Withdrawals++
		if a.Balance.LessThan(moneyMarketLoyaltyBalance) {
			a.Loyal = false
		}
	}
	return nil
}

// DowngradeToSavings flips a money market account that fell under its
// minimum balance into a savings account. The number keeps its original type
// digits.
func (a *Account) DowngradeToSavings() bool {
	if a.Type != MoneyMarket || !a.Balance.LessThan(moneyMarketMinimumBalance) {
		return false
	}
	a.Type = Savings
	return true
}

func (a *Account) record(kind ActivityKind, amount decimal.Decimal, at Posting) {
	a.Activities = append(a.Activities, Activity{
		Date:     at.Date,
		Location: at.Location,
		Kind:     kind,
		Amount:   amount,
		FromFile: at.FromFile,
	})
}

// Clone returns a deep copy safe to hand out of the store.
func (a *Account) Clone() *Account {
	c := *a
	if a.Activities != nil {
		c.Activities = make([]Activity, len(a.Activities))
		copy(c.Activities, a.Activities)
	}
	return &c
}

// ArchivedAccount is a closed account as kept in the archive.
type ArchivedAccount struct {
	Account  *Account        `json:"account"`
	ClosedOn Date            `json:"closed_on"`
	Interest decimal.Decimal `json:"interest"`
	Penalty  decimal.Decimal `json:"penalty"`
}
