// Package reconcile applies incoming transfers to matched billable records.
package reconcile

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smarttro/smarttro/internal/billing/domain"
	"github.com/smarttro/smarttro/internal/clock"
	"github.com/smarttro/smarttro/internal/config"
	obsmetrics "github.com/smarttro/smarttro/internal/observability/metrics"
	"github.com/smarttro/smarttro/internal/payment/domain"
	"github.com/smarttro/smarttro/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       billingdomain.Repository
	Clock      clock.Clock
	Email      email.Provider
	Cfg        config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       billingdomain.Repository
	clock      clock.Clock
	email      email.Provider
	tolerance  int64
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.reconcile"),
		repo:       p.Repo,
		clock:      p.Clock,
		email:      p.Email,
		tolerance:  p.Cfg.Sepay.AmountTolerance,
		obsMetrics: p.ObsMetrics,
	}
}

// Apply transitions the matched record to PAID when the transferred amount is
// within tolerance of the amount due. Replays against an already-paid record
// report already_settled without touching the row; the provider retries the
// same transaction under at-least-once delivery and must see the same answer
// every time.
func (s *Service) Apply(ctx context.Context, invoice *billingdomain.Invoice, txn domain.Transaction) (domain.Result, error) {
	if invoice == nil {
		return domain.Result{Outcome: domain.OutcomeNoMatch}, nil
	}

	if invoice.Status == billingdomain.InvoiceStatusPaid {
		return domain.Result{
			Outcome: domain.OutcomeAlreadySettled,
			Invoice: invoice,
			Message: fmt.Sprintf("record %s already settled", invoice.Code),
		}, nil
	}

	diff := txn.Amount - invoice.AmountDue
	if diff < 0 {
		diff = -diff
	}
	if diff > s.tolerance {
		// Partial payments and typos stay open for human follow-up instead
		// of being silently marked paid.
		return domain.Result{
			Outcome:        domain.OutcomeAmountMismatch,
			Invoice:        invoice,
			ExpectedAmount: invoice.AmountDue,
			ReceivedAmount: txn.Amount,
			Message: fmt.Sprintf(
				"manual verification required: expected %d, received %d for record %s",
				invoice.AmountDue, txn.Amount, invoice.Code,
			),
		}, nil
	}

	now := s.clock.Now()
	updated, err := s.repo.Settle(ctx, s.db, invoice.ID, billingdomain.SettleUpdate{
		PaidAt:        now,
		PaymentMethod: billingdomain.PaymentMethodBankTransfer,
		TransactionID: txn.TransactionID,
	})
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeError}, err
	}
	if !updated {
		// Lost the race against a concurrent delivery; the other writer
		// settled the record first.
		return domain.Result{
			Outcome: domain.OutcomeAlreadySettled,
			Invoice: invoice,
			Message: fmt.Sprintf("record %s already settled", invoice.Code),
		}, nil
	}

	settled := *invoice
	settled.Status = billingdomain.InvoiceStatusPaid
	settled.PaidAt = &now
	settled.PaymentMethod = billingdomain.PaymentMethodBankTransfer
	settled.TransactionID = txn.TransactionID

	s.log.Info("record settled",
		zap.String("code", settled.Code),
		zap.String("transaction_id", txn.TransactionID),
		zap.Int64("amount", txn.Amount),
	)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordSettlement(ctx, string(settled.Kind))
	}
	s.notify(ctx, &settled, txn)

	return domain.Result{
		Outcome:        domain.OutcomeSettled,
		Invoice:        &settled,
		ExpectedAmount: invoice.AmountDue,
		ReceivedAmount: txn.Amount,
		Message:        fmt.Sprintf("record %s settled", settled.Code),
	}, nil
}

// ForceSettle marks a record paid without any matching, bypassing the memo
// pipeline. Meant for non-production verification; an already-paid record is
// rejected rather than silently accepted.
func (s *Service) ForceSettle(ctx context.Context, invoiceID snowflake.ID, amount int64, transactionID string) (*billingdomain.Invoice, error) {
	invoice, err := s.repo.GetByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, billingdomain.ErrNotFound
	}
	if invoice.Status == billingdomain.InvoiceStatusPaid {
		return nil, billingdomain.ErrAlreadyPaid
	}

	if transactionID == "" {
		transactionID = fmt.Sprintf("MANUAL-%d", s.clock.Now().UnixNano())
	}
	if amount <= 0 {
		amount = invoice.AmountDue
	}

	now := s.clock.Now()
	updated, err := s.repo.Settle(ctx, s.db, invoice.ID, billingdomain.SettleUpdate{
		PaidAt:        now,
		PaymentMethod: billingdomain.PaymentMethodBankTransfer,
		TransactionID: transactionID,
	})
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, billingdomain.ErrAlreadyPaid
	}

	settled := *invoice
	settled.Status = billingdomain.InvoiceStatusPaid
	settled.PaidAt = &now
	settled.PaymentMethod = billingdomain.PaymentMethodBankTransfer
	settled.TransactionID = transactionID

	s.log.Info("record settled manually",
		zap.String("code", settled.Code),
		zap.String("transaction_id", transactionID),
		zap.Int64("amount", amount),
	)
	return &settled, nil
}

func (s *Service) notify(ctx context.Context, invoice *billingdomain.Invoice, txn domain.Transaction) {
	address, _ := invoice.Metadata["tenant_email"].(string)
	if address == "" {
		return
	}

	subject := fmt.Sprintf("Payment received for %s", invoice.Code)
	body := fmt.Sprintf(
		"<p>We received your bank transfer of %d VND for %s.</p><p>Transaction reference: %s</p>",
		txn.Amount, invoice.Code, txn.TransactionID,
	)
	if err := s.email.Send(ctx, []string{address}, subject, body); err != nil {
		s.log.Warn("failed to send settlement notification",
			zap.String("code", invoice.Code),
			zap.Error(err),
		)
	}
}
