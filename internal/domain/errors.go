package domain

import "errors"

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidTerm          = errors.New("invalid term")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrWithdrawalNotAllowed = errors.New("withdrawal not allowed")
	ErrCloseBeforeOpen      = errors.New("close date before open date")
	ErrSequenceExhausted    = errors.New("account sequence exhausted")
)
