package main

import (
	"github.com/jmacdonald/appliance-identifier/internal/config"
	"github.com/jmacdonald/appliance-identifier/internal/logging"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.ServiceName)
}
