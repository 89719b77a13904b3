package payment

import (
	"github.com/smarttro/smarttro/internal/payment/qr"
	"github.com/smarttro/smarttro/internal/payment/reconcile"
	"github.com/smarttro/smarttro/internal/payment/resolver"
	"github.com/smarttro/smarttro/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	fx.Provide(qr.NewService),
	fx.Provide(resolver.NewService),
	fx.Provide(reconcile.NewService),
	fx.Provide(webhook.NewService),
)
