package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("invoice_not_found")
	ErrAlreadyPaid = errors.New("invoice_already_paid")
)

// SettleUpdate carries the fields written when a record transitions to PAID.
type SettleUpdate struct {
	PaidAt        time.Time
	PaymentMethod string
	TransactionID string
}

// Repository is the billable record store. Lookups return (nil, nil) when
// nothing matches; Settle reports whether the conditional write landed.
type Repository interface {
	GetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)

	// FindByCodeToken matches token case-insensitively and partially against
	// both the record code and the generated memo content.
	FindByCodeToken(ctx context.Context, db *gorm.DB, token string) (*Invoice, error)

	// FindRoomByToken matches token case-insensitively and partially against
	// room codes.
	FindRoomByToken(ctx context.Context, db *gorm.DB, token string) (*Room, error)

	// FindLatestOpenByRoom returns the most recently issued open record on the
	// room whose amount due is within tolerance of amount (0 = exact).
	FindLatestOpenByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID, amount int64, tolerance int64) (*Invoice, error)

	// Settle flips the record to PAID iff it is still in an open status.
	// Returns false when the guard did not match (already paid or not open).
	Settle(ctx context.Context, db *gorm.DB, id snowflake.ID, update SettleUpdate) (bool, error)

	// AttachQR stores the generated QR url and memo on the record.
	AttachQR(ctx context.Context, db *gorm.DB, id snowflake.ID, qrURL string, memo string) error
}
