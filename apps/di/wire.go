//go:build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/incubaapp/incuba/core"
)

// InitApp builds every dependency; call cleanup once done.
func InitApp(conf *core.Config) (*App, func(), error) {
	wire.Build(ProviderSet)
	return new(App), nil, nil
}
