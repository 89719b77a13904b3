// Package seed bootstraps demo data for development environments.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smarttro/smarttro/internal/billing/domain"
	"gorm.io/gorm"
)

var demoRooms = []struct {
	Code   string
	Name   string
	Rent   int64
	Status billingdomain.InvoiceStatus
}{
	{"P01", "Phong 1", 2_800_000, billingdomain.InvoiceStatusUnpaid},
	{"P02", "Phong 2", 2_800_000, billingdomain.InvoiceStatusSent},
	{"P03", "Phong 3", 3_200_000, billingdomain.InvoiceStatusOverdue},
	{"P04", "Phong 4", 3_500_000, billingdomain.InvoiceStatusUnpaid},
}

// EnsureDemoData seeds a handful of rooms with one open invoice each so a
// fresh development database has something to reconcile against. A database
// that already has rooms is left alone.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&billingdomain.Room{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		issued := now.AddDate(0, 0, -7)

		for i, entry := range demoRooms {
			room := billingdomain.Room{
				ID:        node.Generate(),
				Code:      entry.Code,
				Name:      entry.Name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&room).Error; err != nil {
				return err
			}

			roomID := room.ID
			invoice := billingdomain.Invoice{
				ID:        node.Generate(),
				Kind:      billingdomain.KindRentInvoice,
				Code:      fmt.Sprintf("INV%s%03d", issued.Format("200601"), i+1),
				RoomID:    &roomID,
				TenantID:  node.Generate(),
				AmountDue: entry.Rent,
				Status:    entry.Status,
				IssuedAt:  issued,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&invoice).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
