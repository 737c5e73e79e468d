package domain

import (
	"fmt"
	"slices"
	"strings"
)

type Order string

const (
	OrderNone   Order = ""
	OrderBranch Order = "branch"
	OrderHolder Order = "holder"
	OrderType   Order = "type"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderNone, OrderBranch, OrderHolder, OrderType:
		return o, nil
	default:
		return "", fmt.Errorf("unknown order %q", s)
	}
}

// Group is a run of consecutive accounts sharing a header in a sorted listing.
// Header is empty for unheaded listings.
type Group struct {
	Header   string     `json:"header,omitempty"`
	Accounts []*Account `json:"accounts"`
}

// SortAccounts orders accounts in place. OrderNone leaves them as they are.
func SortAccounts(accounts []*Account, o Order) {
	switch o {
	case OrderBranch:
		slices.SortStableFunc(accounts, CompareByBranch)
	case OrderHolder:
		slices.SortStableFunc(accounts, CompareByHolder)
	case OrderType:
		slices.SortStableFunc(accounts, CompareByType)
	}
}

// GroupAccounts sorts accounts and starts a new group whenever the grouping
// key changes: the county for branch order, the type for type order.
func GroupAccounts(accounts []*Account, o Order) []Group {
	SortAccounts(accounts, o)

	var key func(*Account) string
	switch o {
	case OrderBranch:
		key = func(a *Account) string { return "County: " + a.Branch.County() }
	case OrderType:
		key = func(a *Account) string { return "Account Type: " + a.Type.String() }
	default:
		if len(accounts) == 0 {
			return nil
		}
		return []Group{{Accounts: accounts}}
	}

	var groups []Group
	for _, a := range accounts {
		k := key(a)
		if len(groups) == 0 || groups[len(groups)-1].Header != k {
			groups = append(groups, Group{Header: k})
		}
		last := &groups[len(groups)-1]
		last.Accounts = append(last.Accounts, a)
	}
	return groups
}
