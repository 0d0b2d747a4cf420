package plan

import "go.uber.org/fx"

// Module exposes the plan service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(SeedDefaultPlans),
)
