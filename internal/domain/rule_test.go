package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAccount_InterestRate(t *testing.T) {
	cases := []struct {
		name string
		acct *Account
		want string
	}{
		{"checking", NewChecking("", testHolder, BranchEdison), "0.015"},
		{"college checking", NewCollegeChecking("", testHolder, BranchEdison, CampusNewark), "0.015"},
		{"savings", NewSavings("", testHolder, BranchEdison, false), "0.025"},
		{"loyal savings", NewSavings("", testHolder, BranchEdison, true), "0.0275"},
		{"money market", NewMoneyMarket("", testHolder, BranchEdison), "0.035"},
		{"cd 3", NewCertificateDeposit("", testHolder, BranchEdison, 3, NewDate(2024, 1, 1)), "0.03"},
		{"cd 6", NewCertificateDeposit("", testHolder, BranchEdison, 6, NewDate(2024, 1, 1)), "0.0325"},
		{"cd 9", NewCertificateDeposit("", testHolder, BranchEdison, 9, NewDate(2024, 1, 1)), "0.035"},
		{"cd 12", NewCertificateDeposit("", testHolder, BranchEdison, 12, NewDate(2024, 1, 1)), "0.04"},
	}

	for _, c := range cases {
		got, err := c.acct.InterestRate()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if !got.Equal(dec(c.want)) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}

	mm := NewMoneyMarket("", testHolder, BranchEdison)
	mm.Loyal = true
	if got, _ := mm.InterestRate(); !got.Equal(dec("0.0375")) {
		t.Errorf("loyal money market: expected 0.0375, got %s", got)
	}
}

func TestAccount_LoyaltyRaisesRate(t *testing.T) {
	for _, typ := range []AccountType{Savings, MoneyMarket} {
		a := &Account{Type: typ}
		base, _ := a.InterestRate()
		a.Loyal = true
		loyal, _ := a.InterestRate()
		if !loyal.GreaterThan(base) {
			t.Errorf("%s: expected loyal rate %s above %s", typ, loyal, base)
		}
	}
}

func TestAccount_InterestRateInvalidTerm(t *testing.T) {
	for _, term := range []int{0, 1, 4, 18} {
		a := NewCertificateDeposit("", testHolder, BranchEdison, term, NewDate(2024, 1, 1))
		if _, err := a.InterestRate(); !errors.Is(err, ErrInvalidTerm) {
			t.Errorf("term %d: expected ErrInvalidTerm, got %v", term, err)
		}
		if _, err := a.MonthlyInterest(); !errors.Is(err, ErrInvalidTerm) {
			t.Errorf("term %d: expected ErrInvalidTerm from monthly interest, got %v", term, err)
		}
	}
}

func TestAccount_MonthlyInterest(t *testing.T) {
	a := NewSavings("", testHolder, BranchEdison, true)
	a.Balance = dec("1200")

	got, err := a.MonthlyInterest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("2.75")) {
		t.Errorf("expected 2.75, got %s", got)
	}
}

func TestAccount_Fee(t *testing.T) {
	cases := []struct {
		name        string
		typ         AccountType
		balance     string
		withdrawals int
		want        string
	}{
		{"checking under waiver", Checking, "999.99", 0, "15"},
		{"checking at waiver", Checking, "1000", 0, "0"},
		{"college checking", CollegeChecking, "1", 0, "0"},
		{"savings under waiver", Savings, "499.99", 0, "25"},
		{"savings at waiver", Savings, "500", 0, "0"},
		{"money market under minimum", MoneyMarket, "1999", 0, "25"},
		{"money market excess withdrawals", MoneyMarket, "3000", 4, "10"},
		{"money market three withdrawals", MoneyMarket, "3000", 3, "0"},
		{"money market both", MoneyMarket, "1500", 5, "35"},
		{"certificate", CertificateDeposit, "10", 0, "0"},
	}

	for _, c := range cases {
		a := &Account{Type: c.typ, Balance: dec(c.balance), Withdrawals: c.withdrawals}
		if got := a.Fee(); !got.Equal(dec(c.want)) {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestAccount_CloseInterestCertificate(t *testing.T) {
	cases := []struct {
		name     string
		term     int
		closeOn  Date
		interest string
		penalty  string
	}{
		{"early at three months held", 6, NewDate(2024, time.April, 1), "74.79", "7.48"},
		{"matured three month term", 3, NewDate(2024, time.April, 1), "74.79", "0"},
		{"early past nine months held", 12, NewDate(2024, time.October, 15), "276.16", "27.62"},
		{"matured twelve month term", 12, NewDate(2025, time.January, 1), "401.1", "0"},
	}

	for _, c := range cases {
		a := NewCertificateDeposit("100051000", testHolder, BranchEdison, c.term, NewDate(2024, time.January, 1))
		a.Balance = dec("10000")

		interest, penalty, err := a.CloseInterest(c.closeOn)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if !interest.Round(2).Equal(dec(c.interest)) {
			t.Errorf("%s: expected interest %s, got %s", c.name, c.interest, interest.Round(2))
		}
		if !penalty.Round(2).Equal(dec(c.penalty)) {
			t.Errorf("%s: expected penalty %s, got %s", c.name, c.penalty, penalty.Round(2))
		}
		if !a.Balance.Equal(dec("10000")) {
			t.Errorf("%s: expected balance untouched, got %s", c.name, a.Balance)
		}
	}
}

func TestAccount_CloseInterestBeforeOpen(t *testing.T) {
	a := NewCertificateDeposit("100051000", testHolder, BranchEdison, 6, NewDate(2024, time.January, 10))
	a.Balance = dec("1000")
	if _, _, err := a.CloseInterest(NewDate(2024, time.January, 9)); !errors.Is(err, ErrCloseBeforeOpen) {
		t.Errorf("expected ErrCloseBeforeOpen, got %v", err)
	}
}

func TestAccount_CloseInterestOrdinaryAccount(t *testing.T) {
	a := NewChecking("100011000", testHolder, BranchEdison)
	a.Balance = dec("1000")

	interest, penalty, err := a.CloseInterest(NewDate(2025, time.January, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !interest.Round(2).Equal(dec("0.62")) || !penalty.IsZero() {
		t.Errorf("expected 0.62 interest and no penalty, got %s and %s", interest.Round(2), penalty)
	}
}

func TestAccount_ApplyStatement(t *testing.T) {
	a := funded(t, NewChecking("100011000", testHolder, BranchEdison), "400")
	_ = a.Deposit(dec("100"), testPosting)

	st, err := a.ApplyStatement()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Interest.Equal(dec("0.63")) || !st.Fee.Equal(dec("15")) {
		t.Errorf("expected interest 0.63 and fee 15, got %s and %s", st.Interest, st.Fee)
	}
	if !a.Balance.Equal(dec("485.63")) || !st.Balance.Equal(a.Balance) {
		t.Errorf("expected balance 485.63, got %s (statement %s)", a.Balance, st.Balance)
	}
	if len(st.Activities) != 2 || len(a.Activities) != 0 {
		t.Errorf("expected 2 activities on statement and none left, got %d and %d", len(st.Activities), len(a.Activities))
	}
}

func TestAccount_ApplyStatementKeepsWithdrawalCount(t *testing.T) {
	a := funded(t, NewMoneyMarket("100031000", testHolder, BranchEdison), "10000")
	for i := 0; i < 4; i++ {
		_ = a.Withdraw(dec("10"), testPosting)
	}

	first, _ := a.ApplyStatement()
	second, _ := a.ApplyStatement()

	if !first.Fee.Equal(dec("10")) || !second.Fee.Equal(dec("10")) {
		t.Errorf("expected excess withdrawal fee in both cycles, got %s and %s", first.Fee, second.Fee)
	}
	if a.Withdrawals != 4 {
		t.Errorf("expected withdrawal count to carry over, got %d", a.Withdrawals)
	}
}

func TestSameAccount(t *testing.T) {
	a := NewSavings("100021000", testHolder, BranchEdison, false)

	sameNumber := NewChecking("100021000", NewProfile("Jane", "Roe", NewDate(1990, 1, 1)), BranchWarren)
	sameHolderType := NewSavings("", NewProfile("JOHN", "doe", testHolder.DateOfBirth), BranchWarren, false)
	otherType := NewChecking("", testHolder, BranchEdison)

	if !SameAccount(a, sameNumber) {
		t.Error("expected match on account number")
	}
	if !SameAccount(a, sameHolderType) {
		t.Error("expected match on holder and type")
	}
	if SameAccount(a, otherType) {
		t.Error("expected no match for a different type without number")
	}
}
