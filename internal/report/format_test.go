package report

import (
	"bytes"
	"retail_bank/internal/domain"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var holder = domain.NewProfile("John", "Doe", domain.NewDate(2000, time.February, 19))

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "$0.00",
		"5":           "$5.00",
		"1234.5":      "$1,234.50",
		"1234567.891": "$1,234,567.89",
		"-42.1":       "-$42.10",
	}
	for in, want := range cases {
		if got := Money(decimal.RequireFromString(in)); got != want {
			t.Errorf("Money(%s): expected %s, got %s", in, want, got)
		}
	}
}

func TestAccount_Variants(t *testing.T) {
	checking := domain.NewChecking("200011000", holder, domain.BranchBridgewater)
	checking.Balance = decimal.RequireFromString("1234.56")

	if got, want := Account(checking), "Account#[200011000] Holder[John Doe 2/19/2000] Balance[$1,234.56] Branch[BRIDGEWATER]"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	savings := domain.NewSavings("100021001", holder, domain.BranchEdison, true)
	if !strings.HasSuffix(Account(savings), " [LOYAL]") {
		t.Errorf("expected loyal suffix, got %q", Account(savings))
	}

	mm := domain.NewMoneyMarket("100031002", holder, domain.BranchEdison)
	mm.Withdrawals = 2
	if !strings.HasSuffix(Account(mm), " Withdrawal[2]") {
		t.Errorf("expected withdrawal count, got %q", Account(mm))
	}

	cc := domain.NewCollegeChecking("100041003", holder, domain.BranchEdison, domain.CampusCamden)
	if !strings.HasSuffix(Account(cc), " Campus[CAMDEN]") {
		t.Errorf("expected campus suffix, got %q", Account(cc))
	}

	cd := domain.NewCertificateDeposit("100051004", holder, domain.BranchEdison, 6, domain.NewDate(2024, time.August, 31))
	if !strings.HasSuffix(Account(cd), " Term[6] Date opened[8/31/2024] Maturity date[2/28/2025]") {
		t.Errorf("expected term suffix, got %q", Account(cd))
	}
}

func TestActivity(t *testing.T) {
	act := domain.Activity{
		Date:     domain.NewDate(2025, time.January, 10),
		Location: domain.BranchEdison,
		Kind:     domain.ActivityWithdrawal,
		Amount:   decimal.NewFromInt(1500),
		FromFile: true,
	}
	if got, want := Activity(act), "1/10/2025::EDISON[ATM]::withdrawal::$1,500.00"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	act.FromFile = false
	act.Kind = domain.ActivityDeposit
	if got, want := Activity(act), "1/10/2025::EDISON::deposit::$1,500.00"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGroups(t *testing.T) {
	a := domain.NewChecking("100011000", holder, domain.BranchEdison)
	b := domain.NewChecking("300011001", holder, domain.BranchPrinceton)
	groups := []domain.Group{
		{Header: "County: Mercer", Accounts: []*domain.Account{b}},
		{Header: "County: Middlesex", Accounts: []*domain.Account{a}},
	}

	var buf bytes.Buffer
	Groups(&buf, "*List of accounts ordered by branch location (county, city).", groups)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"*List of accounts ordered by branch location (county, city).",
		"County: Mercer",
		Account(b),
		"County: Middlesex",
		Account(a),
		"*end of list.",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestStatements(t *testing.T) {
	st := domain.Statement{
		Number: "100011000",
		Holder: holder,
		Type:   domain.Checking,
		Activities: []domain.Activity{{
			Date:     domain.NewDate(2025, time.January, 10),
			Location: domain.BranchEdison,
			Kind:     domain.ActivityDeposit,
			Amount:   decimal.NewFromInt(500),
		}},
		Interest: decimal.RequireFromString("0.63"),
		Fee:      decimal.NewFromInt(15),
		Balance:  decimal.RequireFromString("485.63"),
	}

	var buf bytes.Buffer
	Statements(&buf, []domain.Statement{st})
	out := buf.String()

	for _, want := range []string{
		"1.Account#[100011000] Holder[John Doe 2/19/2000] Checking",
		"\t[Activity]\n\t\t1/10/2025::EDISON::deposit::$500.00",
		"\t[interest] $0.63 [Fee] $15.00",
		"\t[Balance] $485.63",
		"*end of list.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestArchive(t *testing.T) {
	a := domain.NewChecking("100011000", holder, domain.BranchEdison)
	entries := []domain.ArchivedAccount{{
		Account:  a,
		ClosedOn: domain.NewDate(2025, time.March, 1),
		Interest: decimal.Zero,
		Penalty:  decimal.Zero,
	}}

	var buf bytes.Buffer
	Archive(&buf, entries)

	if !strings.Contains(buf.String(), Account(a)+" Closed[3/1/2025]") {
		t.Errorf("expected closed suffix, got:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "[interest]") {
		t.Errorf("expected no interest line for a zero-interest checking, got:\n%s", buf.String())
	}
}
