// Package domain contains persistence models for billable records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents billable record lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
	InvoiceStatusRefunded  InvoiceStatus = "REFUNDED"
)

// OpenStatuses are the pre-payment states reconciliation may settle from.
var OpenStatuses = []InvoiceStatus{
	InvoiceStatusUnpaid,
	InvoiceStatusSent,
	InvoiceStatusOverdue,
}

// IsOpen reports whether the status allows settlement.
func (s InvoiceStatus) IsOpen() bool {
	for _, open := range OpenStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// InvoiceKind distinguishes recurring rent invoices from posting-package orders.
// Both are reconciled identically.
type InvoiceKind string

const (
	KindRentInvoice  InvoiceKind = "rent_invoice"
	KindPackageOrder InvoiceKind = "package_order"
)

const PaymentMethodBankTransfer = "bank_transfer"

// Invoice is a billable record awaiting payment. AmountDue is fixed at
// creation and never changes; the status moves to PAID at most once.
type Invoice struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	Kind             InvoiceKind       `gorm:"type:text;not null;default:'rent_invoice'"`
	Code             string            `gorm:"type:text;not null;uniqueIndex:ux_invoices_code"`
	RoomID           *snowflake.ID     `gorm:"index"`
	TenantID         snowflake.ID      `gorm:"index"`
	AmountDue        int64             `gorm:"not null"`
	Status           InvoiceStatus     `gorm:"type:text;not null;default:'UNPAID';index"`
	PaidAt           *time.Time        `gorm:""`
	PaymentMethod    string            `gorm:"type:text"`
	TransactionID    string            `gorm:"type:text"`
	PaymentQRCode    string            `gorm:"type:text"`
	PaymentQRContent string            `gorm:"type:text"`
	IssuedAt         time.Time         `gorm:"not null;index"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"not null"`
	UpdatedAt        time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Room is a rentable unit. Its code (e.g. P04) doubles as the weak
// correlation key recovered from transfer memos.
type Room struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_rooms_code"`
	Name      string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Room) TableName() string { return "rooms" }
