package fiberlog

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Config is config for middleware
type Config struct {
	Logger *logrus.Logger
	Tags   []string
	// SkipPaths are not logged, e.g. websocket upgrades that stay open
	SkipPaths []string
	// BodyTypes limits body tags to these content types, all types when empty
	BodyTypes []string
}

// ConfigDefault is the default config
var ConfigDefault Config = Config{
	Logger: nil,
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
		TagUserID,
	},
}

func (c Config) skip(path string) bool {
	for _, p := range c.SkipPaths {
		if p == path {
			return true
		}
	}
	return false
}

func (c Config) bodyAllowed(contentType string) bool {
	if len(c.BodyTypes) == 0 {
		return true
	}
	for _, t := range c.BodyTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
