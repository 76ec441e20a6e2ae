//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
)

// BuildApp wires the client components using Google Wire.
func BuildApp(ctx context.Context) (*App, error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideHub,
		provideStore,
		provideAvatars,
		provideClient,
		wire.Struct(new(App), "Config", "Logger", "Hub", "Client"),
	)
	return nil, nil
}
