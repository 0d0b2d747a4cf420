package paymentissue

import "go.uber.org/fx"

// Module exposes the payment-issue service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
