package logging

import (
	"io"
	"os"
	"strings"

	"github.com/gatherly/gatherly/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup applies the log section of the configuration to the standard logrus logger.
// An empty level keeps whatever LOG_LEVEL selected at startup.
func Setup(cfg config.Log) error {
	return configure(log.StandardLogger(), cfg)
}

func configure(logger *log.Logger, cfg config.Log) error {
	if cfg.Level != "" {
		level, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}
	return nil
}
