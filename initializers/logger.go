package initializers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"microloan-backend/fiberlog"
)

func jsonFormatter() *log.JSONFormatter {
	return &log.JSONFormatter{
		FieldMap: log.FieldMap{
			log.FieldKeyTime: "@timestamp",
			log.FieldKeyMsg:  "message",
		},
	}
}

// InitLogger sets up the global logger and returns the access log config.
// The access logger always runs at debug so request records are never filtered.
func InitLogger(level string) *fiberlog.Config {
	log.SetFormatter(jsonFormatter())
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	logger := log.New()
	logger.SetFormatter(jsonFormatter())
	logger.SetLevel(log.DebugLevel)
	return &fiberlog.Config{
		Logger: logger,
		Tags: []string{
			fiberlog.TagBody,
			fiberlog.TagResBody,
			fiberlog.TagMethod,
			fiberlog.TagRoute,
			fiberlog.TagPath,
			fiberlog.TagStatus,
			fiberlog.TagLatency,
			fiberlog.TagUserID,
			fiberlog.RequestID,
		},
		SkipPaths: []string{"/api/v1/ws", "/api/v1/ws/"},
		BodyTypes: []string{fiber.MIMEApplicationJSON},
	}
}
