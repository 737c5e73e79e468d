package teller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"retail_bank/internal/domain"
	"retail_bank/internal/loader"
	"retail_bank/internal/processor"
	"retail_bank/internal/report"
	"retail_bank/internal/repository"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	runningMessage    = "Transaction Manager is running."
	terminatedMessage = "Transaction Manager is terminated."
	invalidCommand    = "Invalid command!"
	emptyDatabase     = "Account database is empty!"
)

// Session reads teller commands line by line and prints one response per
// command. A rejected command never ends the session; only Q does.
type Session struct {
	processor *processor.AccountProcessor
	out       io.Writer
	logger    *slog.Logger
}

func NewSession(p *processor.AccountProcessor, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{processor: p, logger: logger}
}

func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out
	s.println(runningMessage)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "Q" {
			s.println(terminatedMessage)
			return nil
		}
		s.Execute(ctx, fields)
	}
	return scanner.Err()
}

// Execute runs one already-tokenized command.
func (s *Session) Execute(ctx context.Context, fields []string) {
	switch fields[0] {
	case "O":
		s.open(ctx, fields[1:])
	case "C":
		s.close(ctx, fields[1:])
	case "D":
		s.deposit(ctx, fields[1:])
	case "W":
		s.withdraw(ctx, fields[1:])
	case "P":
		s.list(ctx, domain.OrderNone, "*List of accounts in the account database.")
	case "PB":
		s.list(ctx, domain.OrderBranch, "*List of accounts ordered by branch location (county, city).")
	case "PH":
		s.list(ctx, domain.OrderHolder, "*List of accounts ordered by account holder and number.")
	case "PT":
		s.list(ctx, domain.OrderType, "*List of accounts ordered by account type and number.")
	case "PA":
		s.archive(ctx)
	case "PS":
		s.statements(ctx)
	case "A":
		s.activities(ctx, fields[1:])
	default:
		s.println(invalidCommand)
	}
}

func (s *Session) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Session) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format+"\n", a...)
}

func (s *Session) parseAmount(token string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(token)
	if err != nil {
		s.printf("For input string: %q - not a valid amount.", token)
		return decimal.Zero, false
	}
	return amount, true
}

// open handles O type branch first last dob amount [campus | term [openDate]].
func (s *Session) open(ctx context.Context, args []string) {
	if len(args) < 6 {
		s.println("Missing data for opening an account.")
		return
	}

	typ, err := domain.ParseAccountType(args[0])
	if err != nil {
		s.printf("%s - invalid account type.", args[0])
		return
	}
	branch, err := domain.ParseBranch(args[1])
	if err != nil {
		s.printf("%s - invalid branch.", args[1])
		return
	}
	dob, err := domain.ParseDate(args[4])
	if err != nil {
		s.printf("DOB invalid: %s not a valid calendar date!", args[4])
		return
	}
	amount, ok := s.parseAmount(args[5])
	if !ok {
		return
	}

	req := domain.OpenRequest{
		Type:   typ,
		Branch: branch,
		Holder: domain.NewProfile(args[2], args[3], dob),
		Amount: amount,
	}

	switch typ {
	case domain.CollegeChecking:
		if len(args) < 7 {
			s.println("Missing data for opening an account.")
			return
		}
		if req.Campus, err = domain.ParseCampus(args[6]); err != nil {
			s.println("Invalid campus code.")
			return
		}
	case domain.CertificateDeposit:
		if len(args) < 7 {
			s.println("Missing data for opening an account.")
			return
		}
		if req.Term, err = strconv.Atoi(args[6]); err != nil {
			s.printf("%s - invalid term.", args[6])
			return
		}
		if len(args) > 7 {
			if req.OpenDate, err = domain.ParseDate(args[7]); err != nil {
				s.printf("Open date invalid: %s not a valid calendar date!", args[7])
				return
			}
		}
	}

	account, err := s.processor.Open(ctx, req)
	switch {
	case err == nil:
		s.printf("%s account %s has been opened.", account.Type, account.Number)
	case errors.Is(err, repository.ErrDuplicate):
		s.printf("%s already has a %s account.", req.Holder.FirstName+" "+req.Holder.LastName, typ)
	default:
		s.println(describe(err))
	}
}

// close handles C number [date] and C first last dob [date].
func (s *Session) close(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.println("Missing data for closing an account.")
		return
	}

	if number, err := domain.ParseAccountNumber(args[0]); err == nil && len(args) <= 2 {
		date, ok := s.optionalDate(args[1:])
		if !ok {
			return
		}
		entry, err := s.processor.Close(ctx, number, date)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.printf("%s account does not exist.", number)
			} else {
				s.println(describe(err))
			}
			return
		}
		s.printClosed(entry)
		return
	}

	if len(args) < 3 {
		s.println("Missing data for closing an account.")
		return
	}
	dob, err := domain.ParseDate(args[2])
	if err != nil {
		s.printf("DOB invalid: %s not a valid calendar date!", args[2])
		return
	}
	date, ok := s.optionalDate(args[3:])
	if !ok {
		return
	}

	holder := domain.NewProfile(args[0], args[1], dob)
	closed, err := s.processor.CloseHolder(ctx, holder, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.printf("%s does not have any accounts in the database.", holder)
		} else {
			s.println(describe(err))
		}
		return
	}
	for _, entry := range closed {
		s.printClosed(entry)
	}
	s.printf("All accounts for %s are closed and moved to archive.", holder)
}

func (s *Session) optionalDate(args []string) (domain.Date, bool) {
	if len(args) == 0 {
		return domain.Date{}, true
	}
	date, err := domain.ParseDate(args[0])
	if err != nil {
		s.printf("Close date invalid: %s not a valid calendar date!", args[0])
		return domain.Date{}, false
	}
	return date, true
}

func (s *Session) printClosed(entry domain.ArchivedAccount) {
	line := fmt.Sprintf("%s is closed and moved to archive; interest earned %s",
		entry.Account.Number, report.Money(entry.Interest))
	if entry.Penalty.IsPositive() {
		line += fmt.Sprintf(", early withdrawal penalty %s", report.Money(entry.Penalty))
	}
	s.println(line + ".")
}

func (s *Session) deposit(ctx context.Context, args []string) {
	if len(args) < 2 {
		s.println("Missing data for deposit.")
		return
	}
	number, err := domain.ParseAccountNumber(args[0])
	if err != nil {
		s.printf("%s does not exist.", args[0])
		return
	}
	amount, ok := s.parseAmount(args[1])
	if !ok {
		return
	}
	if !amount.IsPositive() {
		s.printf("%s - deposit amount cannot be 0 or negative.", args[1])
		return
	}

	if _, err := s.processor.Deposit(ctx, number, amount, domain.Posting{}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.printf("%s does not exist.", number)
		} else {
			s.println(describe(err))
		}
		return
	}
	s.printf("%s deposited to %s", report.Money(amount), number)
}

func (s *Session) withdraw(ctx context.Context, args []string) {
	if len(args) < 2 {
		s.println("Missing data for withdrawal.")
		return
	}
	number, err := domain.ParseAccountNumber(args[0])
	if err != nil {
		s.printf("%s does not exist.", args[0])
		return
	}
	amount, ok := s.parseAmount(args[1])
	if !ok {
		return
	}
	if !amount.IsPositive() {
		s.printf("%s withdrawal amount cannot be 0 or negative.", args[1])
		return
	}

	res, err := s.processor.Withdraw(ctx, number, amount, domain.Posting{})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.printf("%s does not exist.", number)
		case errors.Is(err, domain.ErrInsufficientFunds):
			s.printf("%s - insufficient funds.", number)
		case errors.Is(err, domain.ErrWithdrawalNotAllowed):
			s.printf("%s - certificate deposit must be closed to withdraw.", number)
		default:
			s.println(describe(err))
		}
		return
	}

	prefix := ""
	if res.Downgraded {
		prefix = fmt.Sprintf("%s is downgraded to SAVINGS - ", number)
	}
	s.printf("%s%s withdrawn from %s", prefix, report.Money(amount), number)
}

func (s *Session) list(ctx context.Context, order domain.Order, title string) {
	groups, err := s.processor.List(ctx, order)
	if err != nil {
		s.println(describe(err))
		return
	}
	if len(groups) == 0 {
		s.println(emptyDatabase)
		return
	}
	report.Groups(s.out, title, groups)
}

func (s *Session) archive(ctx context.Context) {
	entries, err := s.processor.Archive(ctx)
	if err != nil {
		s.println(describe(err))
		return
	}
	if len(entries) == 0 {
		s.println("Archive is empty.")
		return
	}
	report.Archive(s.out, entries)
}

func (s *Session) statements(ctx context.Context) {
	statements, err := s.processor.Statements(ctx)
	if len(statements) == 0 {
		if err != nil {
			s.println(describe(err))
		} else {
			s.println(emptyDatabase)
		}
		return
	}
	report.Statements(s.out, statements)
	if err != nil {
		s.println(describe(err))
	}
}

// activities handles A path: every record in the file is posted in order.
// A bad record is reported and skipped.
func (s *Session) activities(ctx context.Context, args []string) {
	if len(args) < 1 {
		s.println("Missing activity file.")
		return
	}

	lines, err := loader.LoadActivitiesFile(args[0])
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load activities",
			slog.String("path", args[0]),
			slog.String("error", err.Error()))
		s.println(describe(err))
		return
	}

	s.printf("Processing %q...", args[0])
	for _, line := range lines {
		rec := line.Record
		if _, err := s.processor.ApplyActivity(ctx, rec); err != nil {
			s.printf("%s::%s::%s::%s - %s", rec.Number, rec.Date, rec.Kind, report.Money(rec.Amount), describe(err))
			continue
		}
		s.printf("%s::%s::%s::%s", rec.Number, rec.Date, rec.Kind, report.Money(rec.Amount))
	}
	s.printf("Account activities in %q processed.", args[0])
}

// describe strips the processing prefixes added on the way up and returns
// the innermost human-readable reason.
func describe(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"validation failed: ", "failed to add account: ", "failed to close account: ", "failed to close accounts: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
