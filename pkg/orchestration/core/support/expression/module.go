package expression

import "go.uber.org/fx"

// Module provides the DefaultResolver as Resolver.
var Module = fx.Options(
	fx.Provide(NewDefaultResolver),
)
