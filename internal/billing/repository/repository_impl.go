package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smarttro/smarttro/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const invoiceColumns = `id, kind, code, room_id, tenant_id, amount_due, status,
	paid_at, payment_method, transaction_id, payment_qr_code, payment_qr_content,
	issued_at, metadata, created_at, updated_at`

func (r *repo) GetByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var item domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByCodeToken(ctx context.Context, db *gorm.DB, token string) (*domain.Invoice, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return nil, nil
	}

	pattern := "%" + token + "%"
	var item domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices
		 WHERE UPPER(code) LIKE ? OR UPPER(payment_qr_content) LIKE ?
		 ORDER BY issued_at DESC, id DESC
		 LIMIT 1`,
		pattern,
		pattern,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindRoomByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Room, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return nil, nil
	}

	var item domain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, created_at, updated_at
		 FROM rooms
		 WHERE UPPER(code) LIKE ?
		 ORDER BY LENGTH(code) ASC, id ASC
		 LIMIT 1`,
		"%"+token+"%",
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindLatestOpenByRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID, amount int64, tolerance int64) (*domain.Invoice, error) {
	var item domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices
		 WHERE room_id = ?
		   AND status IN (?, ?, ?)
		   AND ABS(amount_due - ?) <= ?
		 ORDER BY issued_at DESC, id DESC
		 LIMIT 1`,
		roomID,
		domain.InvoiceStatusUnpaid,
		domain.InvoiceStatusSent,
		domain.InvoiceStatusOverdue,
		amount,
		tolerance,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Settle(ctx context.Context, db *gorm.DB, id snowflake.ID, update domain.SettleUpdate) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, paid_at = ?, payment_method = ?, transaction_id = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?, ?)`,
		domain.InvoiceStatusPaid,
		update.PaidAt,
		update.PaymentMethod,
		update.TransactionID,
		update.PaidAt,
		id,
		domain.InvoiceStatusUnpaid,
		domain.InvoiceStatusSent,
		domain.InvoiceStatusOverdue,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) AttachQR(ctx context.Context, db *gorm.DB, id snowflake.ID, qrURL string, memo string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET payment_qr_code = ?, payment_qr_content = ?
		 WHERE id = ?`,
		qrURL,
		memo,
		id,
	).Error
}
