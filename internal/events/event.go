// Package events carries ledger and visit facts to Kafka once the Mongo
// transaction that produced them has committed.
package events

import (
	"time"

	"spadesk/pkg/kafka"

	"github.com/google/uuid"
)

const SchemaVersion = "1"

const (
	DepositCreated  = "deposit.created"
	BalanceDebited  = "balance.debited"
	BalanceRefunded = "balance.refunded"
	VIPPurchased    = "vip.purchased"
	VisitCreated    = "visit.created"
	VisitDeleted    = "visit.deleted"
)

// Event is the payload of every message on the ledger topic. ReferenceID is
// the deposit, visit or purchase the event is about.
type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	CustomerID   string    `json:"customer_id"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	Amount       int64     `json:"amount"`
	BalanceAfter *int64    `json:"balance_after,omitempty"`
	Operator     string    `json:"operator,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func New(eventType, customerID, referenceID string, amount int64) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		CustomerID:  customerID,
		ReferenceID: referenceID,
		Amount:      amount,
		OccurredAt:  time.Now().UTC(),
	}
}

func (e Event) WithBalance(balance int64) Event {
	e.BalanceAfter = &balance
	return e
}

func (e Event) WithOperator(operator string) Event {
	e.Operator = operator
	return e
}

// Decode reads an Event back from a consumed message.
func Decode(msg kafka.Message) (Event, error) {
	var ev Event
	if err := msg.DecodeValue(&ev); err != nil {
		return Event{}, err
	}
	if ev.CustomerID == "" {
		ev.CustomerID = msg.Key
	}
	if ev.Type == "" {
		ev.Type = msg.GetEventType()
	}
	return ev, nil
}
