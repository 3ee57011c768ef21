//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"biolinkbot/internal/biz"
	"biolinkbot/internal/conf"
	"biolinkbot/internal/data"
	"biolinkbot/internal/pkg/sched"
	"biolinkbot/internal/server"
	"biolinkbot/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Moderation, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		wire.Bind(new(sched.Deleter), new(*data.PlatformClient)),
		newApp,
	))
}
