package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/subdash/subdash/internal/app/api/server"
	"github.com/subdash/subdash/internal/app/service/eventlog"
	"github.com/subdash/subdash/internal/app/service/paymentissue"
	"github.com/subdash/subdash/internal/app/service/plan"
	"github.com/subdash/subdash/internal/app/service/realtime"
	"github.com/subdash/subdash/internal/app/service/reconciler"
	"github.com/subdash/subdash/internal/app/service/statistics"
	"github.com/subdash/subdash/internal/app/service/subscription"
	"github.com/subdash/subdash/internal/platform/db"
	"github.com/subdash/subdash/internal/platform/stripe"
	"github.com/subdash/subdash/pkg/config"
	"github.com/subdash/subdash/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	stripe.Module,
	server.Module,
	plan.Module,
	subscription.Module,
	paymentissue.Module,
	statistics.Module,
	eventlog.Module,
	realtime.Module,
	reconciler.Module,
)
