package domain

import "github.com/shopspring/decimal"

// OpenRequest is an account opening as parsed from a teller command, a seed
// file line or an API call. Campus is read only for college checking, Term
// and OpenDate only for certificates of deposit. FromFile marks the opening
// deposit as loaded from a seed file.
type OpenRequest struct {
	Type     AccountType     `json:"type"`
	Branch   Branch          `json:"branch"`
	Holder   Profile         `json:"holder"`
	Amount   decimal.Decimal `json:"amount"`
	Campus   Campus          `json:"campus,omitempty"`
	Term     int             `json:"term,omitempty"`
	OpenDate Date            `json:"open_date"`
	FromFile bool            `json:"-"`
}

// ActivityRecord is one historical deposit or withdrawal from a seed file.
type ActivityRecord struct {
	Kind     ActivityKind    `json:"kind"`
	Number   AccountNumber   `json:"number"`
	Date     Date            `json:"date"`
	Location Branch          `json:"location"`
	Amount   decimal.Decimal `json:"amount"`
}
