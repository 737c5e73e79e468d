package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	monthsInYear = decimal.NewFromInt(12)
	daysInYear   = decimal.NewFromInt(365)

	checkingRate     = decimal.RequireFromString("0.015")
	savingsRate      = decimal.RequireFromString("0.025")
	savingsLoyalRate = decimal.RequireFromString("0.0275")
	marketRate       = decimal.RequireFromString("0.035")
	marketLoyalRate  = decimal.RequireFromString("0.0375")

	checkingFeeWaiver = decimal.NewFromInt(1000)
	checkingFee       = decimal.NewFromInt(15)
	savingsFeeWaiver  = decimal.NewFromInt(500)
	savingsFee        = decimal.NewFromInt(25)
	marketFee         = decimal.NewFromInt(25)
	marketExcessFee   = decimal.NewFromInt(10)

	moneyMarketMinimumBalance = decimal.NewFromInt(2000)
	moneyMarketLoyaltyBalance = decimal.NewFromInt(5000)

	earlyClosurePenalty = decimal.RequireFromString("0.10")
)

// MoneyMarketMinimum is the opening deposit floor, and the balance under
// which a money market account is downgraded to savings.
func MoneyMarketMinimum() decimal.Decimal { return moneyMarketMinimumBalance }

const freeMarketWithdrawals = 3

// Term rates for certificates of deposit, keyed by contracted months.
var termRates = map[int]decimal.Decimal{
	3:  decimal.RequireFromString("0.03"),
	6:  decimal.RequireFromString("0.0325"),
	9:  decimal.RequireFromString("0.035"),
	12: decimal.RequireFromString("0.04"),
}

func ValidTerm(term int) bool {
	_, ok := termRates[term]
	return ok
}

func TermRate(term int) (decimal.Decimal, error) {
	rate, ok := termRates[term]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d months", ErrInvalidTerm, term)
	}
	return rate, nil
}

// heldRate picks the certificate rate for how long the money actually stayed,
// counting a month as 30 days.
func heldRate(daysHeld int) decimal.Decimal {
	switch {
	case daysHeld <= 6*30:
		return termRates[3]
	case daysHeld <= 9*30:
		return termRates[6]
	case daysHeld < 12*30:
		return termRates[9]
	default:
		return termRates[12]
	}
}

// InterestRate is the annual rate. Only a certificate of deposit with a term
// outside 3/6/9/12 months can fail.
func (a *Account) InterestRate() (decimal.Decimal, error) {
	switch a.Type {
	case Checking, CollegeChecking:
		return checkingRate, nil
	case Savings:
		if a.Loyal {
			return savingsLoyalRate, nil
		}
		return savingsRate, nil
	case MoneyMarket:
		if a.Loyal {
			return marketLoyalRate, nil
		}
		return marketRate, nil
	case CertificateDeposit:
		return TermRate(a.Term)
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAccountType, a.Type)
	}
}

func (a *Account) MonthlyInterest() (decimal.Decimal, error) {
	rate, err := a.InterestRate()
	if err != nil {
		return decimal.Zero, err
	}
	return a.Balance.Mul(rate).Div(monthsInYear), nil
}

func (a *Account) Fee() decimal.Decimal {
	switch a.Type {
	case Checking:
		if a.Balance.GreaterThanOrEqual(checkingFeeWaiver) {
			return decimal.Zero
		}
		return checkingFee
	case Savings:
		if a.Balance.GreaterThanOrEqual(savingsFeeWaiver) {
			return decimal.Zero
		}
		return savingsFee
	case MoneyMarket:
		fee := decimal.Zero
		if a.Balance.LessThan(moneyMarketMinimumBalance) {
			fee = fee.Add(marketFee)
		}
		if a.Withdrawals > freeMarketWithdrawals {
			fee = fee.Add(marketExcessFee)
		}
		return fee
	default:
		return decimal.Zero
	}
}

// CloseInterest reports the interest earned up to closeDate and, for a
// certificate closed before maturity, the early-withdrawal penalty. Neither
// amount is posted to the balance.
func (a *Account) CloseInterest(closeDate Date) (interest, penalty decimal.Decimal, err error) {
	if a.Type != CertificateDeposit {
		rate, err := a.InterestRate()
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return prorate(a.Balance, rate, closeDate.Day), decimal.Zero, nil
	}

	termRate, err := TermRate(a.Term)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if closeDate.Before(a.OpenDate) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s before %s", ErrCloseBeforeOpen, closeDate, a.OpenDate)
	}

	daysHeld := closeDate.DaysSince(a.OpenDate)
	if !closeDate.Before(a.Maturity()) {
		return prorate(a.Balance, termRate, daysHeld), decimal.Zero, nil
	}

	interest = prorate(a.Balance, heldRate(daysHeld), daysHeld)
	return interest, interest.Mul(earlyClosurePenalty), nil
}

// Maturity is the date a certificate of deposit reaches its full term.
func (a *Account) Maturity() Date {
	return a.OpenDate.AddMonths(a.Term)
}

func prorate(balance, rate decimal.Decimal, days int) decimal.Decimal {
	return balance.Mul(rate).Div(daysInYear).Mul(decimal.NewFromInt(int64(days)))
}

// Statement is one account's monthly cycle: the activity since the previous
// statement, the interest and fee posted, and the resulting balance.
type Statement struct {
	Number     AccountNumber   `json:"number"`
	Holder     Profile         `json:"holder"`
	Type       AccountType     `json:"type"`
	Activities []Activity      `json:"activities"`
	Interest   decimal.Decimal `json:"interest"`
	Fee        decimal.Decimal `json:"fee"`
	Balance    decimal.Decimal `json:"balance"`
}

// ApplyStatement posts the monthly interest less the fee, rounded to cents,
// and starts a new activity list. The money market withdrawal count carries
// over from cycle to cycle.
func (a *Account) ApplyStatement() (Statement, error) {
	interest, err := a.MonthlyInterest()
	if err != nil {
		return Statement{}, err
	}
	interest = interest.Round(2)
	fee := a.Fee()

	st := Statement{
		Number:     a.Number,
		Holder:     a.Holder,
		Type:       a.Type,
		Activities: a.Activities,
		Interest:   interest,
		Fee:        fee,
	}

	a.Balance = a.Balance.Add(interest).Sub(fee)
	if a.Balance.IsNegative() {
		a.Balance = decimal.Zero
	}
	a.Activities = nil

	st.Balance = a.Balance
	return st, nil
}

// SameAccount is the duplicate rule used when adding to the store: the
// numbers match, or the holder already has an account of this type.
// Lookups by identity compare numbers only.
func SameAccount(a, b *Account) bool {
	if a.Number != "" && a.Number == b.Number {
		return true
	}
	return a.Type == b.Type && a.Holder.Equal(b.Holder)
}

func CompareByHolder(a, b *Account) int {
	if c := a.Holder.Compare(b.Holder); c != 0 {
		return c
	}
	return a.Number.Compare(b.Number)
}

func CompareByBranch(a, b *Account) int {
	if c := strings.Compare(strings.ToLower(a.Branch.County()), strings.ToLower(b.Branch.County())); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.Branch.String()), strings.ToLower(b.Branch.String())); c != 0 {
		return c
	}
	return a.Number.Compare(b.Number)
}

func CompareByType(a, b *Account) int {
	if c := a.Type.Compare(b.Type); c != 0 {
		return c
	}
	return a.Number.Compare(b.Number)
}
