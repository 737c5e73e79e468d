package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"retail_bank/internal/domain"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedRecord = errors.New("malformed record")

// AccountLine is one opening request read from an accounts file.
type AccountLine struct {
	Line    int
	Request domain.OpenRequest
}

// ActivityLine is one historical activity read from an activities file.
type ActivityLine struct {
	Line   int
	Record domain.ActivityRecord
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	return cr
}

func malformed(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedRecord, line, fmt.Sprintf(format, args...))
}

// LoadAccounts reads lines of the form
// type,branch,first,last,dob,amount[,campus | ,term,openDate]
// A CD line without an open date opens as of today.
func LoadAccounts(r io.Reader) ([]AccountLine, error) {
	cr := newReader(r)

	var out []AccountLine
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		req, err := parseAccount(rec, line)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountLine{Line: line, Request: req})
	}
	return out, nil
}

func parseAccount(rec []string, line int) (domain.OpenRequest, error) {
	if len(rec) < 6 {
		return domain.OpenRequest{}, malformed(line, "expected at least 6 fields, got %d", len(rec))
	}

	typ, err := domain.ParseAccountType(strings.TrimSpace(rec[0]))
	if err != nil {
		return domain.OpenRequest{}, malformed(line, "%v", err)
	}
	branch, err := domain.ParseBranch(rec[1])
	if err != nil {
		return domain.OpenRequest{}, malformed(line, "%v", err)
	}
	dob, err := domain.ParseDate(strings.TrimSpace(rec[4]))
	if err != nil {
		return domain.OpenRequest{}, malformed(line, "dob: %v", err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[5]))
	if err != nil {
		return domain.OpenRequest{}, malformed(line, "amount %q: not a valid amount", rec[5])
	}

	req := domain.OpenRequest{
		Type:     typ,
		Branch:   branch,
		Holder:   domain.NewProfile(strings.TrimSpace(rec[2]), strings.TrimSpace(rec[3]), dob),
		Amount:   amount,
		FromFile: true,
	}

	switch typ {
	case domain.CollegeChecking:
		if len(rec) < 7 {
			return domain.OpenRequest{}, malformed(line, "missing campus")
		}
		if req.Campus, err = domain.ParseCampus(rec[6]); err != nil {
			return domain.OpenRequest{}, malformed(line, "%v", err)
		}
	case domain.CertificateDeposit:
		if len(rec) < 7 {
			return domain.OpenRequest{}, malformed(line, "missing term")
		}
		if req.Term, err = strconv.Atoi(strings.TrimSpace(rec[6])); err != nil {
			return domain.OpenRequest{}, malformed(line, "term %q: not a number", rec[6])
		}
		if len(rec) > 7 && strings.TrimSpace(rec[7]) != "" {
			if req.OpenDate, err = domain.ParseDate(strings.TrimSpace(rec[7])); err != nil {
				return domain.OpenRequest{}, malformed(line, "open date: %v", err)
			}
		}
	}
	return req, nil
}

// LoadActivities reads lines of the form kind,number,date,branch,amount
// where kind is D or W.
func LoadActivities(r io.Reader) ([]ActivityLine, error) {
	cr := newReader(r)

	var out []ActivityLine
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}

		activity, err := parseActivity(rec, line)
		if err != nil {
			return nil, err
		}
		out = append(out, ActivityLine{Line: line, Record: activity})
	}
	return out, nil
}

func parseActivity(rec []string, line int) (domain.ActivityRecord, error) {
	if len(rec) != 5 {
		return domain.ActivityRecord{}, malformed(line, "expected 5 fields, got %d", len(rec))
	}

	kind := domain.ActivityKind(strings.ToUpper(strings.TrimSpace(rec[0])))
	switch kind {
	case domain.ActivityDeposit, domain.ActivityWithdrawal:
	default:
		return domain.ActivityRecord{}, malformed(line, "invalid activity kind: %s", rec[0])
	}

	number, err := domain.ParseAccountNumber(rec[1])
	if err != nil {
		return domain.ActivityRecord{}, malformed(line, "%v", err)
	}
	date, err := domain.ParseDate(strings.TrimSpace(rec[2]))
	if err != nil {
		return domain.ActivityRecord{}, malformed(line, "date: %v", err)
	}
	if !date.IsValid() {
		return domain.ActivityRecord{}, malformed(line, "date: %s not a valid calendar date", date)
	}
	branch, err := domain.ParseBranch(rec[3])
	if err != nil {
		return domain.ActivityRecord{}, malformed(line, "%v", err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[4]))
	if err != nil {
		return domain.ActivityRecord{}, malformed(line, "amount %q: not a valid amount", rec[4])
	}

	return domain.ActivityRecord{
		Kind:     kind,
		Number:   number,
		Date:     date,
		Location: branch,
		Amount:   amount,
	}, nil
}

func LoadAccountsFile(path string) ([]AccountLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadAccounts(f)
}

func LoadActivitiesFile(path string) ([]ActivityLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadActivities(f)
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
