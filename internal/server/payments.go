package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smarttro/smarttro/internal/payment/qr"
)

type createQRRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Description   string `json:"description"`
	InvoiceID     string `json:"invoice_id"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type testSettleRequest struct {
	InvoiceID     string `json:"invoice_id" binding:"required"`
	Amount        int64  `json:"amount"`
	TransactionID string `json:"transaction_id"`
}

func (s *Server) CreatePaymentQR(c *gin.Context) {
	if !s.qrLimiter.Allow(c.ClientIP()) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	var req createQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var invoiceID *snowflake.ID
	if trimmed := strings.TrimSpace(req.InvoiceID); trimmed != "" {
		parsed, err := snowflake.ParseString(trimmed)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		invoiceID = &parsed
	}

	payload, err := s.qrSvc.Create(c.Request.Context(), qr.Request{
		Amount:        req.Amount,
		Description:   req.Description,
		InvoiceID:     invoiceID,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, payload)
}

// TestSettle force-settles a record without going through the webhook
// pipeline. The route is only registered outside production.
func (s *Server) TestSettle(c *gin.Context) {
	var req testSettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invoice, err := s.reconcileSvc.ForceSettle(c.Request.Context(), invoiceID, req.Amount, strings.TrimSpace(req.TransactionID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             invoice.ID.String(),
		"code":           invoice.Code,
		"status":         string(invoice.Status),
		"paid_at":        invoice.PaidAt,
		"transaction_id": invoice.TransactionID,
	})
}
