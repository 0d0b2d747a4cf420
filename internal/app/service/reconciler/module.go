package reconciler

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/app/service/eventlog"
	"github.com/subdash/subdash/internal/app/service/paymentissue"
	"github.com/subdash/subdash/internal/app/service/realtime"
	"github.com/subdash/subdash/internal/app/service/subscription"
)

// Module wires the concrete services into the reconciler's interfaces.
var Module = fx.Options(
	fx.Provide(func(
		sub *subscription.Service,
		issues *paymentissue.Service,
		events *eventlog.Service,
		hub *realtime.Hub,
		log *zap.SugaredLogger,
	) *Service {
		return New(sub, issues, events, hub, log)
	}),
)
