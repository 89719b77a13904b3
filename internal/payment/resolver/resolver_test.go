package resolver

import (
	"context"
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

func newResolver(db *gorm.DB, tolerance int64) *Service {
	return NewService(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Cfg:  config.Config{Sepay: config.SepayConfig{AmountTolerance: tolerance}},
	})
}

func seedRoom(t *testing.T, db *gorm.DB, id int64, code string) snowflake.ID {
	t.Helper()
	room := billingdomain.Room{
		ID:        snowflake.ID(id),
		Code:      code,
		Name:      "Room " + code,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&room).Error)
	return room.ID
}

func seedInvoice(t *testing.T, db *gorm.DB, id int64, code string, roomID snowflake.ID, amount int64, status billingdomain.InvoiceStatus, issuedAt time.Time) {
	t.Helper()
	rid := roomID
	invoice := billingdomain.Invoice{
		ID:        snowflake.ID(id),
		Kind:      billingdomain.KindRentInvoice,
		Code:      code,
		RoomID:    &rid,
		TenantID:  snowflake.ID(900),
		AmountDue: amount,
		Status:    status,
		IssuedAt:  issuedAt,
		CreatedAt: issuedAt,
		UpdatedAt: issuedAt,
	}
	require.NoError(t, db.Create(&invoice).Error)
}

func TestResolveByRecordCode(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued)
	seedInvoice(t, db, 2, "INV2024002", roomID, 4_000_000, billingdomain.InvoiceStatusUnpaid, issued.AddDate(0, 1, 0))

	svc := newResolver(db, 1000)

	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RecordCode: "INV2024001"}, 999)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024001", got.Code)
}

func TestResolveCodeBeatsRoom(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued)
	seedInvoice(t, db, 2, "INV2024002", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued.AddDate(0, 1, 0))

	svc := newResolver(db, 1000)

	// The room strategy would pick the most recent invoice; the explicit code
	// must win.
	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04", RecordCode: "INV2024001"}, 3_500_000)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024001", got.Code)
}

func TestResolveUnknownCodeFallsThroughToRoom(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued)

	svc := newResolver(db, 1000)

	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04", RecordCode: "ZZZ999"}, 3_500_000)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024001", got.Code)
}

func TestResolveByRoomPrefersExactAmount(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued.AddDate(0, 1, 0))
	seedInvoice(t, db, 2, "INV2024002", roomID, 3_500_500, billingdomain.InvoiceStatusUnpaid, issued.AddDate(0, 2, 0))

	svc := newResolver(db, 1000)

	// Both are within tolerance of the transfer; the exact match wins even
	// though the other is more recent.
	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04"}, 3_500_000)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024001", got.Code)
}

func TestResolveByRoomWithinTolerance(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued)

	svc := newResolver(db, 1000)

	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04"}, 3_499_500)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024001", got.Code)

	got, err = svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04"}, 3_400_000)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestResolveByRoomRecencyTieBreak(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued)
	seedInvoice(t, db, 2, "INV2024002", roomID, 3_500_000, billingdomain.InvoiceStatusOverdue, issued.AddDate(0, 1, 0))

	svc := newResolver(db, 1000)

	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04"}, 3_500_000)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024002", got.Code)
}

func TestResolveByRoomSkipsSettled(t *testing.T) {
	db := setupDB(t)
	roomID := seedRoom(t, db, 100, "P04")
	issued := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	seedInvoice(t, db, 1, "INV2024001", roomID, 3_500_000, billingdomain.InvoiceStatusPaid, issued.AddDate(0, 1, 0))
	seedInvoice(t, db, 2, "INV2024002", roomID, 3_500_000, billingdomain.InvoiceStatusUnpaid, issued)

	svc := newResolver(db, 1000)

	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P04"}, 3_500_000)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "INV2024002", got.Code)
}

func TestResolveNothingActionable(t *testing.T) {
	db := setupDB(t)
	svc := newResolver(db, 1000)

	got, err := svc.Resolve(context.Background(), domain.ParsedMemo{}, 3_500_000)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = svc.Resolve(context.Background(), domain.ParsedMemo{RoomToken: "P99"}, 3_500_000)
	require.NoError(t, err)
	require.Nil(t, got)
}
