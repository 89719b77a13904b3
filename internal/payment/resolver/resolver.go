// Package resolver picks the billable record an incoming transfer pays for.
package resolver

import (
	"context"

	billingdomain "github.com/smarttro/smarttro/internal/billing/domain"
	"github.com/smarttro/smarttro/internal/config"
	"github.com/smarttro/smarttro/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo billingdomain.Repository
	Cfg  config.Config
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      billingdomain.Repository
	tolerance int64
}

func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.resolver"),
		repo:      p.Repo,
		tolerance: p.Cfg.Sepay.AmountTolerance,
	}
}

// Resolve applies the matching strategies in priority order and returns the
// first record chosen, or nil when nothing is actionable. A record code is
// authoritative: when its lookup succeeds the amount and room are not
// consulted. Room matching is ambiguous by nature, so it is scoped to open
// statuses and the transfer amount, ties broken by recency.
func (s *Service) Resolve(ctx context.Context, parsed domain.ParsedMemo, amount int64) (*billingdomain.Invoice, error) {
	if parsed.RecordCode != "" {
		invoice, err := s.repo.FindByCodeToken(ctx, s.db, parsed.RecordCode)
		if err != nil {
			return nil, err
		}
		if invoice != nil {
			return invoice, nil
		}
		// A code token that matches nothing falls through to the room
		// strategy; trailing-run extraction can misfire on free text.
	}

	if parsed.RoomToken == "" {
		return nil, nil
	}

	room, err := s.repo.FindRoomByToken(ctx, s.db, parsed.RoomToken)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, nil
	}

	invoice, err := s.repo.FindLatestOpenByRoom(ctx, s.db, room.ID, amount, 0)
	if err != nil {
		return nil, err
	}
	if invoice != nil {
		return invoice, nil
	}

	invoice, err = s.repo.FindLatestOpenByRoom(ctx, s.db, room.ID, amount, s.tolerance)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		s.log.Debug("no open record within tolerance",
			zap.String("room", room.Code),
			zap.Int64("amount", amount),
		)
	}
	return invoice, nil
}
