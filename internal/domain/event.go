package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAccountOpened   EventType = "account_opened"
	EventAccountClosed   EventType = "account_closed"
	EventDeposit         EventType = "deposit"
	EventWithdrawal      EventType = "withdrawal"
	EventDowngraded      EventType = "downgraded"
	EventLoyaltyLost     EventType = "loyalty_lost"
	EventStatementPosted EventType = "statement_posted"
)

type AccountEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Account   AccountNumber     `json:"account"`
	Holder    Profile           `json:"holder"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func NewAccountEvent(t EventType, account *Account, message string) AccountEvent {
	return AccountEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Account:   account.Number,
		Holder:    account.Holder,
		Message:   message,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}
}

func (e AccountEvent) With(key, value string) AccountEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

func NewStatementEvent(st Statement) AccountEvent {
	return AccountEvent{
		ID:      uuid.NewString(),
		Type:    EventStatementPosted,
		Account: st.Number,
		Holder:  st.Holder,
		Message: "Statement posted",
		Metadata: map[string]string{
			"interest": st.Interest.StringFixed(2),
			"fee":      st.Fee.StringFixed(2),
			"balance":  st.Balance.StringFixed(2),
		},
		CreatedAt: time.Now(),
	}
}
