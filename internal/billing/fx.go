package billing

import (
	"github.com/smarttro/smarttro/internal/billing/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(repository.Provide),
)
