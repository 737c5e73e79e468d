package report

import (
	"fmt"
	"io"
	"retail_bank/internal/domain"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const endOfList = "*end of list."

var printer = message.NewPrinter(language.AmericanEnglish)

// Money renders an amount as $1,234.56. Grouping comes from the printer and
// the cents are taken from the exact decimal value.
func Money(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	whole, cents, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + "$" + fixed
	}
	return printer.Sprintf("%s$%d.%s", sign, n, cents)
}

func Account(a *domain.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Account#[%s] Holder[%s] Balance[%s] Branch[%s]", a.Number, a.Holder, Money(a.Balance), a.Branch)

	switch a.Type {
	case domain.Savings:
		if a.Loyal {
			b.WriteString(" [LOYAL]")
		}
	case domain.MoneyMarket:
		if a.Loyal {
			b.WriteString(" [LOYAL]")
		}
		fmt.Fprintf(&b, " Withdrawal[%d]", a.Withdrawals)
	case domain.CollegeChecking:
		fmt.Fprintf(&b, " Campus[%s]", a.Campus)
	case domain.CertificateDeposit:
		fmt.Fprintf(&b, " Term[%d] Date opened[%s] Maturity date[%s]", a.Term, a.OpenDate, a.Maturity())
	}
	return b.String()
}

// Activity renders 1/10/2025::EDISON[ATM]::deposit::$100.00, where [ATM]
// marks an activity that came from a file.
func Activity(act domain.Activity) string {
	atm := ""
	if act.FromFile {
		atm = "[ATM]"
	}
	return fmt.Sprintf("%s::%s%s::%s::%s", act.Date, act.Location, atm, act.Kind, Money(act.Amount))
}

// Groups prints a listing under title, with a header line before each group
// that has one.
func Groups(w io.Writer, title string, groups []domain.Group) {
	fmt.Fprintf(w, "\n%s\n", title)
	for _, g := range groups {
		if g.Header != "" {
			fmt.Fprintln(w, g.Header)
		}
		for _, a := range g.Accounts {
			fmt.Fprintln(w, Account(a))
		}
	}
	fmt.Fprintln(w, endOfList)
}

func Archive(w io.Writer, entries []domain.ArchivedAccount) {
	fmt.Fprintln(w, "\n*List of closed accounts in the archive.")
	for _, e := range entries {
		fmt.Fprintf(w, "%s Closed[%s]\n", Account(e.Account), e.ClosedOn)
		if e.Account.Type == domain.CertificateDeposit || !e.Interest.IsZero() {
			fmt.Fprintf(w, "\t[interest] %s [penalty] %s\n", Money(e.Interest), Money(e.Penalty))
		}
		writeActivities(w, e.Account.Activities)
	}
	fmt.Fprintln(w, endOfList)
}

// Statements prints one block per account: the activity of the cycle, the
// interest and fee posted, and the new balance.
func Statements(w io.Writer, statements []domain.Statement) {
	fmt.Fprintln(w, "\n*list of accounts with statements.")
	for i, st := range statements {
		fmt.Fprintf(w, "\n%d.Account#[%s] Holder[%s] %s\n", i+1, st.Number, st.Holder, st.Type)
		writeActivities(w, st.Activities)
		fmt.Fprintf(w, "\t[interest] %s [Fee] %s\n", Money(st.Interest), Money(st.Fee))
		fmt.Fprintf(w, "\t[Balance] %s\n", Money(st.Balance))
	}
	fmt.Fprintln(w, endOfList)
}

func writeActivities(w io.Writer, activities []domain.Activity) {
	if len(activities) == 0 {
		return
	}
	fmt.Fprintln(w, "\t[Activity]")
	for _, act := range activities {
		fmt.Fprintf(w, "\t\t%s\n", Activity(act))
	}
}
