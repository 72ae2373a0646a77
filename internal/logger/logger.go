package logger

import (
	"fmt"

	"geoquiz-service/internal/config"
	"go.uber.org/zap"
)

// New builds a production JSON logger when log.env is "production" and a development
// console logger otherwise. log.level overrides the default level.
func New(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Log.Env == "production" {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
