package loader

import (
	"errors"
	"os"
	"path/filepath"
	"retail_bank/internal/domain"
	"strings"
	"testing"
	"time"
)

func TestLoadAccounts(t *testing.T) {
	input := `C,Bridgewater,John,Doe,2/19/2000,500
# seeded college account
CC, newark ,Jane,Doe,10/1/2004,1000.50,1

CD,Princeton,Amy,Lee,1/5/1990,10000,6,1/1/2024
MM,Warren,Bob,Stone,3/3/1985,2500
`
	lines, err := LoadAccounts(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected NEWARK to be rejected as a branch, got %d lines", len(lines))
	}
	if !errors.Is(err, ErrMalformedRecord) || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected a malformed record on line 3, got %v", err)
	}

	input = strings.Replace(input, " newark ", "edison", 1)
	lines, err = LoadAccounts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error on LoadAccounts: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 accounts, got %d", len(lines))
	}

	first := lines[0].Request
	if first.Type != domain.Checking || first.Branch != domain.BranchBridgewater || first.Amount.String() != "500" {
		t.Errorf("unexpected first request: %+v", first)
	}
	if first.Holder.DateOfBirth != domain.NewDate(2000, time.February, 19) {
		t.Errorf("unexpected dob: %s", first.Holder.DateOfBirth)
	}
	for _, l := range lines {
		if !l.Request.FromFile {
			t.Errorf("line %d: expected the request to be marked as loaded from file", l.Line)
		}
	}

	college := lines[1]
	if college.Line != 3 || college.Request.Campus != domain.CampusNewark {
		t.Errorf("expected NEWARK campus on line 3, got %+v", college)
	}

	cd := lines[2].Request
	if cd.Term != 6 || cd.OpenDate != domain.NewDate(2024, time.January, 1) {
		t.Errorf("unexpected certificate request: %+v", cd)
	}
	if lines[3].Line != 6 || lines[3].Request.Type != domain.MoneyMarket {
		t.Errorf("unexpected last line: %+v", lines[3])
	}
}

func TestLoadAccounts_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"too few fields", "C,Edison,John,Doe,2/19/2000"},
		{"bad type", "X,Edison,John,Doe,2/19/2000,500"},
		{"bad date", "C,Edison,John,Doe,2-19-2000,500"},
		{"bad amount", "C,Edison,John,Doe,2/19/2000,5oo"},
		{"college without campus", "CC,Edison,John,Doe,2/19/2004,500"},
		{"college bad campus", "CC,Edison,John,Doe,2/19/2004,500,7"},
		{"certificate without term", "CD,Edison,John,Doe,2/19/2000,500"},
		{"certificate bad term", "CD,Edison,John,Doe,2/19/2000,500,six"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadAccounts(strings.NewReader(tc.input))
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestLoadActivities(t *testing.T) {
	input := "D,100011000,1/10/2025,Edison,100\nw,100031001,1/12/2025,warren,25.50\n"

	lines, err := LoadActivities(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error on LoadActivities: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(lines))
	}

	w := lines[1].Record
	if w.Kind != domain.ActivityWithdrawal || w.Number != "100031001" || w.Location != domain.BranchWarren {
		t.Errorf("unexpected withdrawal record: %+v", w)
	}
	if w.Amount.String() != "25.5" || w.Date != domain.NewDate(2025, time.January, 12) {
		t.Errorf("unexpected amount or date: %s %s", w.Amount, w.Date)
	}
}

func TestLoadActivities_Malformed(t *testing.T) {
	input := "D,100011000,1/10/2025,Edison,100\nT,100011000,1/10/2025,Edison,100\n"

	_, err := LoadActivities(strings.NewReader(input))
	if !errors.Is(err, ErrMalformedRecord) || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected malformed record on line 2, got %v", err)
	}

	for _, bad := range []string{
		"D,12345,1/10/2025,Edison,100",
		"D,100011000,13/10/2025,Edison,100",
		"D,100011000,1/10/2025,Camden,100",
		"D,100011000,1/10/2025,Edison,ten",
		"D,100011000,1/10/2025,Edison",
	} {
		if _, err := LoadActivities(strings.NewReader(bad)); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("expected %q to be malformed, got %v", bad, err)
		}
	}
}

func TestLoadActivitiesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.txt")
	if err := os.WriteFile(path, []byte("D,100011000,1/10/2025,Edison,100\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	lines, err := LoadActivitiesFile(path)
	if err != nil {
		t.Fatalf("unexpected error on LoadActivitiesFile: %v", err)
	}
	if len(lines) != 1 || lines[0].Line != 1 {
		t.Errorf("expected one activity on line 1, got %+v", lines)
	}

	if _, err := LoadAccountsFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
