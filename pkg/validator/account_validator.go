package validator

import (
	"errors"
	"fmt"
	"regexp"
	"retail_bank/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidName  = errors.New("invalid holder name")
	ErrInvalidDate  = errors.New("not a valid calendar date")
	ErrFutureDate   = errors.New("cannot be today or a future day")
	ErrCloseDate    = errors.New("cannot close on a future day")
	ErrUnderage     = errors.New("under 18")
	ErrOverage      = errors.New("over 24")
	ErrBelowMinimum = errors.New("below minimum opening deposit")
)

const (
	minimumAge    = 18
	collegeMaxAge = 24
)

type AccountValidator struct {
	nameRegex *regexp.Regexp
}

func NewAccountValidator() *AccountValidator {
	return &AccountValidator{
		nameRegex: regexp.MustCompile(`^[A-Za-z][A-Za-z'.\-]*$`),
	}
}

// ValidateOpen checks an opening request against today's date and returns
// the first rule it breaks.
func (v *AccountValidator) ValidateOpen(req domain.OpenRequest, today domain.Date) error {
	if !req.Type.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAccountType, req.Type)
	}
	if !req.Branch.Valid() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidBranch, req.Branch)
	}
	if !v.nameRegex.MatchString(req.Holder.FirstName) || !v.nameRegex.MatchString(req.Holder.LastName) {
		return fmt.Errorf("%w: %s %s", ErrInvalidName, req.Holder.FirstName, req.Holder.LastName)
	}

	dob := req.Holder.DateOfBirth
	if !dob.IsValid() {
		return fmt.Errorf("DOB invalid: %s %w", dob, ErrInvalidDate)
	}
	if !dob.Before(today) {
		return fmt.Errorf("DOB invalid: %s %w", dob, ErrFutureDate)
	}
	if !dob.AtLeastYearsOld(minimumAge, today) {
		return fmt.Errorf("not eligible to open: %s %w", dob, ErrUnderage)
	}

	switch req.Type {
	case domain.CollegeChecking:
		if !dob.AtMostYearsOld(collegeMaxAge, today) {
			return fmt.Errorf("not eligible to open: %s %w", dob, ErrOverage)
		}
		if !req.Campus.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCampus, req.Campus)
		}
	case domain.CertificateDeposit:
		if !domain.ValidTerm(req.Term) {
			return fmt.Errorf("%w: %d months", domain.ErrInvalidTerm, req.Term)
		}
		if !req.OpenDate.IsValid() {
			return fmt.Errorf("open date: %s %w", req.OpenDate, ErrInvalidDate)
		}
		if req.OpenDate.After(today) {
			return fmt.Errorf("open date: %s %w", req.OpenDate, ErrFutureDate)
		}
	}

	if err := v.ValidateAmount(req.Amount); err != nil {
		return err
	}
	if req.Type == domain.MoneyMarket && req.Amount.LessThan(domain.MoneyMarketMinimum()) {
		return fmt.Errorf("%w: minimum of $%s to open a money market account", ErrBelowMinimum, domain.MoneyMarketMinimum())
	}

	return nil
}

func (v *AccountValidator) ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s cannot be 0 or negative", domain.ErrInvalidAmount, amount)
	}
	return nil
}

// ValidateCloseDate accepts any real calendar date up to and including today.
func (v *AccountValidator) ValidateCloseDate(date, today domain.Date) error {
	if !date.IsValid() {
		return fmt.Errorf("close date: %s %w", date, ErrInvalidDate)
	}
	if date.After(today) {
		return fmt.Errorf("%w: %s", ErrCloseDate, date)
	}
	return nil
}
