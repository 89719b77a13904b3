package domain

import (
	"errors"

	billingdomain "github.com/smarttro/smarttro/internal/billing/domain"
)

// Transaction is a normalized incoming bank transfer. It is never persisted;
// the provider's transaction id lands on the settled record instead.
type Transaction struct {
	TransactionID string
	Amount        int64
	Memo          string
	Direction     string
	AccountNumber string
	BankCode      string
}

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// IsCredit reports whether the transfer is an incoming credit.
func (t Transaction) IsCredit() bool { return t.Direction == DirectionIn }

// ParsedMemo holds identifiers recovered from free-text memo content.
// Either or both fields may be empty.
type ParsedMemo struct {
	RoomToken  string
	RecordCode string
}

// Outcome classifies the business result of one reconciliation attempt.
// Every outcome except a signature failure is acknowledged as success to the
// provider; retrying a webhook must never amplify into duplicate settlement.
type Outcome string

const (
	OutcomeSettled        Outcome = "settled"
	OutcomeAlreadySettled Outcome = "already_settled"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeError          Outcome = "error"
)

// Result is the reconciliation state machine's report for one transaction.
type Result struct {
	Outcome        Outcome
	Invoice        *billingdomain.Invoice
	ExpectedAmount int64
	ReceivedAmount int64
	Message        string
}

// Ack is the provider-facing acknowledgment. Success reflects structural
// processability, not whether a payment matched.
type Ack struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidRequest   = errors.New("invalid_request")
)
