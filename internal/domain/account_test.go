package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var (
	testHolder  = NewProfile("John", "Doe", NewDate(2000, time.February, 19))
	testPosting = Posting{Date: NewDate(2025, time.January, 15), Location: BranchEdison}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func funded(t *testing.T, a *Account, amount string) *Account {
	t.Helper()
	if err := a.Deposit(dec(amount), testPosting); err != nil {
		t.Fatalf("opening deposit: %v", err)
	}
	return a
}

func TestAccountNumber_Layout(t *testing.T) {
	n := NewAccountNumber(BranchBridgewater, MoneyMarket, 1001)
	if n != "200031001" {
		t.Fatalf("expected 200031001, got %s", n)
	}
	if b, ok := n.Branch(); !ok || b != BranchBridgewater {
		t.Errorf("expected branch BRIDGEWATER, got %s", b)
	}
	if n.TypeCode() != "03" {
		t.Errorf("expected type code 03, got %s", n.TypeCode())
	}

	if _, err := ParseAccountNumber("12345"); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Errorf("expected ErrInvalidAccountNumber, got %v", err)
	}
	if _, err := ParseAccountNumber("10001100a"); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Errorf("expected ErrInvalidAccountNumber, got %v", err)
	}
}

func TestNumberIssuer_Exhausts(t *testing.T) {
	issuer := NewNumberIssuer()
	issuer.next = lastSequence

	n, err := issuer.Issue(BranchEdison, Checking)
	if err != nil || n != "100019999" {
		t.Fatalf("expected 100019999, got %s (%v)", n, err)
	}
	if _, err := issuer.Issue(BranchEdison, Checking); !errors.Is(err, ErrSequenceExhausted) {
		t.Errorf("expected ErrSequenceExhausted, got %v", err)
	}
}

func TestParseAccountType(t *testing.T) {
	cases := map[string]AccountType{
		"C":           Checking,
		"checking":    Checking,
		"CC":          CollegeChecking,
		"S":           Savings,
		"MoneyMarket": MoneyMarket,
		"mm":          MoneyMarket,
		"CD":          CertificateDeposit,
	}
	for token, want := range cases {
		got, err := ParseAccountType(token)
		if err != nil || got != want {
			t.Errorf("%q: expected %s, got %s (%v)", token, want, got, err)
		}
	}
	if _, err := ParseAccountType("brokerage"); !errors.Is(err, ErrInvalidAccountType) {
		t.Errorf("expected ErrInvalidAccountType, got %v", err)
	}
}

func TestAccount_DepositRejectsNonPositive(t *testing.T) {
	a := funded(t, NewChecking("100011000", testHolder, BranchEdison), "100")

	for _, amount := range []string{"0", "-5"} {
		err := a.Deposit(dec(amount), testPosting)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("deposit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if !a.Balance.Equal(dec("100")) || len(a.Activities) != 1 {
		t.Errorf("expected balance 100 with 1 activity, got %s with %d", a.Balance, len(a.Activities))
	}
}

func TestAccount_WithdrawInsufficientFunds(t *testing.T) {
	a := funded(t, NewSavings("100021000", testHolder, BranchEdison, false), "1000")

	if err := a.Withdraw(dec("50"), testPosting); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Balance.Equal(dec("950")) {
		t.Errorf("expected 950, got %s", a.Balance)
	}

	err := a.Withdraw(dec("2000"), testPosting)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !a.Balance.Equal(dec("950")) {
		t.Errorf("expected balance unchanged at 950, got %s", a.Balance)
	}
}

func TestAccount_BalanceMatchesActivity(t *testing.T) {
	a := funded(t, NewChecking("100011000", testHolder, BranchEdison), "500")
	ops := []struct {
		deposit bool
		amount  string
	}{
		{true, "120.25"}, {false, "60"}, {false, "9000"}, {true, "0.75"}, {false, "561"},
	}

	for _, op := range ops {
		if op.deposit {
			_ = a.Deposit(dec(op.amount), testPosting)
		} else {
			_ = a.Withdraw(dec(op.amount), testPosting)
		}
	}

	sum := decimal.Zero
	for _, act := range a.Activities {
		if act.Kind == ActivityDeposit {
			sum = sum.Add(act.Amount)
		} else {
			sum = sum.Sub(act.Amount)
		}
	}
	if !sum.Equal(a.Balance) || !a.Balance.Equal(dec("0")) {
		t.Errorf("expected balance 0 equal to activity sum, got balance %s sum %s", a.Balance, sum)
	}
	if len(a.Activities) != 5 {
		t.Errorf("expected 5 recorded activities, got %d", len(a.Activities))
	}
}

func TestAccount_MoneyMarketLoyaltyTransitions(t *testing.T) {
	a := funded(t, NewMoneyMarket("100031000", testHolder, BranchEdison), "4900")
	if a.Loyal {
		t.Fatal("expected new 4900 money market to not be loyal")
	}

	_ = a.Deposit(dec("200"), testPosting)
	if !a.Balance.Equal(dec("5100")) || !a.Loyal {
		t.Fatalf("expected 5100 and loyal, got %s loyal=%v", a.Balance, a.Loyal)
	}

	_ = a.Withdraw(dec("200"), testPosting)
	if !a.Balance.Equal(dec("4900")) || a.Loyal {
		t.Errorf("expected 4900 and not loyal, got %s loyal=%v", a.Balance, a.Loyal)
	}
	if a.Withdrawals != 1 {
		t.Errorf("expected 1 withdrawal counted, got %d", a.Withdrawals)
	}
}

func TestAccount_SavingsLoyaltyIgnoresDeposits(t *testing.T) {
	a := funded(t, NewSavings("100021000", testHolder, BranchEdison, false), "100")
	_ = a.Deposit(dec("10000"), testPosting)
	if a.Loyal {
		t.Error("expected savings loyalty to stay false after deposit")
	}
}

func TestAccount_CertificateWithdrawNotAllowed(t *testing.T) {
	a := funded(t, NewCertificateDeposit("100051000", testHolder, BranchEdison, 6, NewDate(2024, time.January, 1)), "1000")
	if err := a.Withdraw(dec("10"), testPosting); !errors.Is(err, ErrWithdrawalNotAllowed) {
		t.Fatalf("expected ErrWithdrawalNotAllowed, got %v", err)
	}
	if !a.Balance.Equal(dec("1000")) {
		t.Errorf("expected balance unchanged, got %s", a.Balance)
	}
}

func TestAccount_DowngradeToSavings(t *testing.T) {
	a := funded(t, NewMoneyMarket("100031000", testHolder, BranchEdison), "2500")

	_ = a.Withdraw(dec("400"), testPosting)
	if a.DowngradeToSavings() {
		t.Fatal("expected no downgrade at 2100")
	}
	_ = a.Withdraw(dec("200"), testPosting)
	if !a.DowngradeToSavings() {
		t.Fatal("expected downgrade at 1900")
	}
	if a.Type != Savings || a.Number != "100031000" {
		t.Errorf("expected savings keeping number, got %s %s", a.Type, a.Number)
	}
	if a.DowngradeToSavings() {
		t.Error("expected downgrade to happen only once")
	}
	rate, _ := a.InterestRate()
	if !rate.Equal(savingsRate) {
		t.Errorf("expected savings rate after downgrade, got %s", rate)
	}
}

func TestAccount_CloneIsIndependent(t *testing.T) {
	a := funded(t, NewChecking("100011000", testHolder, BranchEdison), "100")
	c := a.Clone()
	_ = a.Deposit(dec("1"), testPosting)

	if len(c.Activities) != 1 || !c.Balance.Equal(dec("100")) {
		t.Errorf("expected clone to keep 100 and 1 activity, got %s and %d", c.Balance, len(c.Activities))
	}
}
