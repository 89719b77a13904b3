package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smarttro/smarttro/internal/payment/domain"
	"go.uber.org/zap"
)

// HandleSepayWebhook ingests one provider delivery. Only a signature failure
// is surfaced as an HTTP error; every other outcome acknowledges with 200 so
// the provider does not retry deliveries we have already recorded a verdict
// for.
func (s *Server) HandleSepayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	ack, err := s.webhookSvc.Ingest(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			s.log.Warn("webhook signature rejected",
				zap.String("request_id", c.GetString("request_id")),
			)
			AbortWithError(c, err)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
