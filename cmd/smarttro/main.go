package main

import (
	"github.com/smarttro/smarttro/internal/billing"
	"github.com/smarttro/smarttro/internal/clock"
	"github.com/smarttro/smarttro/internal/config"
	"github.com/smarttro/smarttro/internal/logger"
	"github.com/smarttro/smarttro/internal/migration"
	"github.com/smarttro/smarttro/internal/observability"
	"github.com/smarttro/smarttro/internal/payment"
	"github.com/smarttro/smarttro/internal/providers/email"
	"github.com/smarttro/smarttro/internal/seed"
	"github.com/smarttro/smarttro/internal/server"
	"github.com/smarttro/smarttro/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,
		seed.Module,

		// Functional domains
		billing.Module,
		payment.Module,
		email.Module,

		server.Module,
	)
	app.Run()
}
