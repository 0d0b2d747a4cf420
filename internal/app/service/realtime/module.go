package realtime

import "go.uber.org/fx"

// Module exposes the broadcast hub via Fx.
var Module = fx.Options(
	fx.Provide(NewHub),
)
