package qr

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/smarttro/smarttro/internal/billing/domain"
	"github.com/smarttro/smarttro/internal/billing/repository"
	"github.com/smarttro/smarttro/internal/config"
	"github.com/smarttro/smarttro/internal/payment/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&billingdomain.Room{}, &billingdomain.Invoice{}))
	return db
}

func newQRService(db *gorm.DB) *Service {
	return NewService(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Cfg: config.Config{Sepay: config.SepayConfig{
			BankCode:      "MBBank",
			AccountNumber: "0123456789",
			AccountName:   "NGUYEN VAN CHU TRO",
		}},
	})
}

func seedInvoice(t *testing.T, db *gorm.DB, id int64, code string, amount int64) *billingdomain.Invoice {
	t.Helper()
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	invoice := billingdomain.Invoice{
		ID:        snowflake.ID(id),
		Kind:      billingdomain.KindRentInvoice,
		Code:      code,
		TenantID:  snowflake.ID(900),
		AmountDue: amount,
		Status:    billingdomain.InvoiceStatusUnpaid,
		IssuedAt:  issued,
		CreatedAt: issued,
		UpdatedAt: issued,
	}
	require.NoError(t, db.Create(&invoice).Error)
	return &invoice
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	svc := newQRService(setupDB(t))

	_, err := svc.Create(context.Background(), Request{Amount: 0})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Create(context.Background(), Request{Amount: -500})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestCreateForInvoice(t *testing.T) {
	db := setupDB(t)
	svc := newQRService(db)
	invoice := seedInvoice(t, db, 1, "INV2024001", 3_500_000)

	payload, err := svc.Create(context.Background(), Request{
		Amount:    3_500_000,
		InvoiceID: &invoice.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "HD INV2024001", payload.QRContent)

	parsed, err := url.Parse(payload.QRCodeURL)
	require.NoError(t, err)
	require.Equal(t, "qr.sepay.vn", parsed.Host)
	query := parsed.Query()
	require.Equal(t, "0123456789", query.Get("acc"))
	require.Equal(t, "MBBank", query.Get("bank"))
	require.Equal(t, "3500000", query.Get("amount"))
	require.Equal(t, "HD INV2024001", query.Get("des"))

	require.Equal(t, "MBBank", payload.BankInfo.BankCode)
	require.Equal(t, "0123456789", payload.BankInfo.AccountNumber)
	require.Equal(t, int64(3_500_000), payload.BankInfo.Amount)

	var stored billingdomain.Invoice
	require.NoError(t, db.First(&stored, "id = ?", invoice.ID).Error)
	require.Equal(t, payload.QRCodeURL, stored.PaymentQRCode)
	require.Equal(t, "HD INV2024001", stored.PaymentQRContent)
}

func TestCreateNormalizesDescription(t *testing.T) {
	svc := newQRService(setupDB(t))

	payload, err := svc.Create(context.Background(), Request{
		Amount:      500_000,
		Description: "Thanh toán phòng P04 tháng 9",
	})
	require.NoError(t, err)
	require.Equal(t, "THANH TOAN PHONG P04 THANG 9", payload.QRContent)
}

func TestCreateWithoutInvoiceOrDescription(t *testing.T) {
	svc := newQRService(setupDB(t))

	payload, err := svc.Create(context.Background(), Request{Amount: 500_000})
	require.NoError(t, err)
	require.Equal(t, "THANH TOAN", payload.QRContent)
	require.True(t, strings.HasPrefix(payload.QRCodeURL, "https://qr.sepay.vn/img?"))
}

func TestCreateOverridesAccount(t *testing.T) {
	svc := newQRService(setupDB(t))

	payload, err := svc.Create(context.Background(), Request{
		Amount:        500_000,
		AccountNumber: "9999999999",
		AccountName:   "KHAC CHU",
	})
	require.NoError(t, err)
	require.Equal(t, "9999999999", payload.BankInfo.AccountNumber)
	require.Equal(t, "KHAC CHU", payload.BankInfo.AccountName)

	parsed, err := url.Parse(payload.QRCodeURL)
	require.NoError(t, err)
	require.Equal(t, "9999999999", parsed.Query().Get("acc"))
}

func TestCreateUnknownInvoice(t *testing.T) {
	db := setupDB(t)
	svc := newQRService(db)

	// Unknown id: no record to hang the memo on, generic payload instead.
	id := snowflake.ID(424242)
	payload, err := svc.Create(context.Background(), Request{Amount: 500_000, InvoiceID: &id})
	require.NoError(t, err)
	require.Equal(t, "TT424242", payload.QRContent)
}
