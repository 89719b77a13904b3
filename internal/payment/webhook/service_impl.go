// Package webhook ingests Sepay bank-transfer callbacks and drives the
// reconciliation pipeline.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/smarttro/smarttro/internal/config"
	obsmetrics "github.com/smarttro/smarttro/internal/observability/metrics"
	"github.com/smarttro/smarttro/internal/payment/domain"
	"github.com/smarttro/smarttro/internal/payment/memo"
	"github.com/smarttro/smarttro/internal/payment/reconcile"
	"github.com/smarttro/smarttro/internal/payment/resolver"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Alias sets for the provider's shape-variable payloads. Probed in order;
// the first non-empty value wins.
var (
	transactionIDAliases = []string{"transaction_id", "id", "referenceCode"}
	amountAliases        = []string{"transferAmount", "amount"}
	memoAliases          = []string{"content", "description"}
	directionAliases     = []string{"transferType"}
	accountAliases       = []string{"accountNumber", "account_number"}
	bankCodeAliases      = []string{"bankCode", "gateway"}
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Resolver   *resolver.Service
	Reconciler *reconcile.Service
	Cfg        config.Config
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	resolver   *resolver.Service
	reconciler *reconcile.Service
	cfg        config.SepayConfig
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:        p.Log.Named("payment.webhook"),
		resolver:   p.Resolver,
		reconciler: p.Reconciler,
		cfg:        p.Cfg.Sepay,
		obsMetrics: p.ObsMetrics,
	}
}

// Ingest verifies and processes one webhook delivery. The only error it
// returns is a signature failure; every business outcome, including internal
// failures, is folded into a success acknowledgment so the provider's retry
// policy is never triggered by our own problems.
func (s *Service) Ingest(ctx context.Context, payload []byte, headers http.Header) (domain.Ack, error) {
	if err := s.verifySignature(payload, headers); err != nil {
		return domain.Ack{}, err
	}

	txn, err := s.normalize(payload)
	if err != nil {
		s.recordOutcome(ctx, domain.OutcomeIgnored)
		return domain.Ack{
			Success: false,
			Message: "unprocessable payload",
		}, nil
	}

	if !txn.IsCredit() {
		s.recordOutcome(ctx, domain.OutcomeIgnored)
		return domain.Ack{
			Success: true,
			Message: "outgoing transfer ignored",
		}, nil
	}

	result := s.process(ctx, txn)
	s.recordOutcome(ctx, result.Outcome)
	return ackFromResult(result), nil
}

func (s *Service) process(ctx context.Context, txn domain.Transaction) domain.Result {
	parsed := memo.Parse(txn.Memo)
	if parsed.RoomToken == "" && parsed.RecordCode == "" {
		return domain.Result{
			Outcome: domain.OutcomeNoMatch,
			Message: "no identifiers found in transfer content",
		}
	}

	invoice, err := s.resolver.Resolve(ctx, parsed, txn.Amount)
	if err != nil {
		s.log.Error("record lookup failed",
			zap.String("transaction_id", txn.TransactionID),
			zap.Error(err),
		)
		return domain.Result{
			Outcome: domain.OutcomeError,
			Message: "lookup failed, queued for manual reconciliation",
		}
	}
	if invoice == nil {
		return domain.Result{
			Outcome: domain.OutcomeNoMatch,
			Message: "no open record matches this transfer",
		}
	}

	result, err := s.reconciler.Apply(ctx, invoice, txn)
	if err != nil {
		s.log.Error("settlement write failed",
			zap.String("transaction_id", txn.TransactionID),
			zap.String("code", invoice.Code),
			zap.Error(err),
		)
		return domain.Result{
			Outcome: domain.OutcomeError,
			Message: "settlement failed, queued for manual reconciliation",
		}
	}
	return result
}

// verifySignature compares an HMAC-SHA256 of the raw payload against the
// header-supplied signature. No configured secret means verification is
// skipped entirely; that is the documented development-mode fallback.
func (s *Service) verifySignature(payload []byte, headers http.Header) error {
	secret := strings.TrimSpace(s.cfg.WebhookSecret)
	if secret == "" {
		return nil
	}

	var supplied string
	for _, name := range s.cfg.SignatureHeaders {
		if v := strings.TrimSpace(headers.Get(name)); v != "" {
			supplied = v
			break
		}
	}
	if supplied == "" {
		return domain.ErrInvalidSignature
	}
	supplied = strings.TrimPrefix(supplied, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(strings.ToLower(supplied)), []byte(expected)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

func (s *Service) normalize(payload []byte) (domain.Transaction, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return domain.Transaction{}, domain.ErrInvalidPayload
	}

	amount, ok := amountValue(firstDefined(fields, amountAliases))
	if !ok {
		return domain.Transaction{}, domain.ErrInvalidPayload
	}

	txn := domain.Transaction{
		TransactionID: stringValue(firstDefined(fields, transactionIDAliases)),
		Amount:        amount,
		Memo:          stringValue(firstDefined(fields, memoAliases)),
		Direction:     directionValue(firstDefined(fields, directionAliases)),
		AccountNumber: stringValue(firstDefined(fields, accountAliases)),
		BankCode:      stringValue(firstDefined(fields, bankCodeAliases)),
	}
	if txn.TransactionID == "" {
		return domain.Transaction{}, domain.ErrInvalidPayload
	}
	return txn, nil
}

func (s *Service) recordOutcome(ctx context.Context, outcome domain.Outcome) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordWebhookEvent(ctx, string(outcome))
	}
}

func ackFromResult(result domain.Result) domain.Ack {
	data := map[string]any{"outcome": string(result.Outcome)}
	if result.Invoice != nil {
		data["code"] = result.Invoice.Code
	}
	if result.Outcome == domain.OutcomeAmountMismatch {
		data["expected_amount"] = result.ExpectedAmount
		data["received_amount"] = result.ReceivedAmount
	}
	return domain.Ack{
		Success: true,
		Message: result.Message,
		Data:    data,
	}
}

// firstDefined probes the alias keys in order and returns the first value
// present and non-empty.
func firstDefined(fields map[string]any, aliases []string) any {
	for _, key := range aliases {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		if text, isString := value.(string); isString && strings.TrimSpace(text) == "" {
			continue
		}
		return value
	}
	return nil
}

func stringValue(value any) string {
	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case float64:
		return strconv.FormatInt(int64(cast), 10)
	case json.Number:
		return cast.String()
	case int64:
		return strconv.FormatInt(cast, 10)
	case int:
		return strconv.Itoa(cast)
	default:
		return ""
	}
}

func amountValue(value any) (int64, bool) {
	switch cast := value.(type) {
	case float64:
		return int64(cast), true
	case json.Number:
		parsed, err := cast.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(cast), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case int64:
		return cast, true
	case int:
		return int64(cast), true
	default:
		return 0, false
	}
}

// directionValue maps transferType to a direction; "in" or 1 mean credit,
// everything else is treated as outgoing and skipped.
func directionValue(value any) string {
	switch cast := value.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(cast), "in") {
			return domain.DirectionIn
		}
		if trimmed := strings.TrimSpace(cast); trimmed == "1" {
			return domain.DirectionIn
		}
		return domain.DirectionOut
	case float64:
		if cast == 1 {
			return domain.DirectionIn
		}
		return domain.DirectionOut
	case json.Number:
		if cast.String() == "1" {
			return domain.DirectionIn
		}
		return domain.DirectionOut
	default:
		return domain.DirectionOut
	}
}
