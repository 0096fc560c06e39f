package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"edge-auth/internal/config"
)

// New construye el logger del servicio a partir de LOG_LEVEL, LOG_FORMAT y
// LOG_TIMESTAMP.
func New(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "pretty" {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if !cfg.LogTimestamp.Bool() {
		zcfg.EncoderConfig.TimeKey = ""
	}
	return zcfg.Build(zap.Fields(zap.String("env", cfg.NodeEnv)))
}
