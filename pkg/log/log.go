// Package log provides the application logger as an fx module.
package log

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/config"
)

var Module = fx.Module("log",
	fx.Provide(New),
)

// New builds a zap logger tuned to the environment: JSON production encoding
// everywhere except development, which gets the console encoder.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "development" {
		return zap.NewDevelopment()
	}

	zcfg := zap.NewProductionConfig()
	zcfg.InitialFields = map[string]any{
		"service": cfg.AppName,
		"version": cfg.AppVersion,
	}
	return zcfg.Build()
}
