//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final binary.

package main

import (
	"context"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/iWorld-y/propai/internal/config"
	"github.com/iWorld-y/propai/internal/server"
)

// initApp init kratos application.
func initApp(context.Context, *config.Config, *config.ServerConfig, *config.BatchConfig, *config.DBConfig, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		newApp,
	))
}
