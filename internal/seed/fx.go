package seed

import (
	"github.com/smarttro/smarttro/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module seeds demo data outside production.
var Module = fx.Module("seed",
	fx.Invoke(func(db *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.IsProduction() {
			return nil
		}
		if err := EnsureDemoData(db); err != nil {
			return err
		}
		log.Info("demo data ensured")
		return nil
	}),
)
