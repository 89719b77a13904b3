// Package qr builds Sepay bank-transfer QR payloads for billable records.
package qr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smarttro/smarttro/internal/billing/domain"
	"github.com/smarttro/smarttro/internal/config"
	obsmetrics "github.com/smarttro/smarttro/internal/observability/metrics"
	"github.com/smarttro/smarttro/internal/payment/domain"
	"github.com/smarttro/smarttro/internal/payment/memo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const imageBaseURL = "https://qr.sepay.vn/img"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       billingdomain.Repository
	Cfg        config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       billingdomain.Repository
	cfg        config.SepayConfig
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.qr"),
		repo:       p.Repo,
		cfg:        p.Cfg.Sepay,
		obsMetrics: p.ObsMetrics,
	}
}

// Request describes one QR generation. InvoiceID is optional; when present
// the memo defaults to the record code and the payload is persisted onto the
// record best-effort.
type Request struct {
	Amount        int64
	Description   string
	InvoiceID     *snowflake.ID
	AccountNumber string
	AccountName   string
}

type BankInfo struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Amount        int64  `json:"amount"`
}

type Payload struct {
	QRCodeURL string   `json:"qr_code_url"`
	QRContent string   `json:"qr_content"`
	BankInfo  BankInfo `json:"bank_info"`
}

// Create builds the QR image URL and the normalized transfer memo. The memo
// normalization matches memo.Normalize exactly so the parser can recover the
// embedded identifiers after the bank channel re-renders the text.
func (s *Service) Create(ctx context.Context, req Request) (Payload, error) {
	if req.Amount <= 0 {
		return Payload{}, domain.ErrInvalidAmount
	}

	account := strings.TrimSpace(req.AccountNumber)
	if account == "" {
		account = s.cfg.AccountNumber
	}
	accountName := strings.TrimSpace(req.AccountName)
	if accountName == "" {
		accountName = s.cfg.AccountName
	}

	var invoice *billingdomain.Invoice
	if req.InvoiceID != nil && *req.InvoiceID != 0 {
		found, err := s.repo.GetByID(ctx, s.db, *req.InvoiceID)
		if err != nil {
			return Payload{}, err
		}
		invoice = found
	}

	content := memo.Normalize(s.memoText(req, invoice))

	query := url.Values{}
	query.Set("acc", account)
	query.Set("bank", s.cfg.BankCode)
	query.Set("amount", strconv.FormatInt(req.Amount, 10))
	query.Set("des", content)
	qrURL := imageBaseURL + "?" + query.Encode()

	if invoice != nil {
		// Losing the persisted copy must not fail QR creation; the caller
		// still gets a scannable payload.
		if err := s.repo.AttachQR(ctx, s.db, invoice.ID, qrURL, content); err != nil {
			s.log.Warn("failed to persist qr payload",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		}
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordQRGenerated(ctx)
	}

	return Payload{
		QRCodeURL: qrURL,
		QRContent: content,
		BankInfo: BankInfo{
			BankCode:      s.cfg.BankCode,
			AccountNumber: account,
			AccountName:   accountName,
			Amount:        req.Amount,
		},
	}, nil
}

func (s *Service) memoText(req Request, invoice *billingdomain.Invoice) string {
	if desc := strings.TrimSpace(req.Description); desc != "" {
		return desc
	}
	if invoice != nil {
		return "HD " + invoice.Code
	}
	if req.InvoiceID != nil && *req.InvoiceID != 0 {
		id := req.InvoiceID.String()
		if len(id) > 8 {
			id = id[len(id)-8:]
		}
		return fmt.Sprintf("TT%s", id)
	}
	return "THANH TOAN"
}
