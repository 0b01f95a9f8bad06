package fiberlog

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"microloan-backend/models"
)

const (
	TagPid     = "pid"
	TagLatency = "latency"
	TagStatus  = "status"
	TagMethod  = "method"
	TagPath    = "path"
	TagRoute   = "route"
	TagIP      = "ip"
	TagBody    = "body"
	TagResBody = "resBody"
	TagUserID  = "user_id"
	RequestID  = "request_id"
)

// bodies longer than this are cut in the log record
const maxBodyLen = 2048

type data struct {
	pid   int
	start time.Time
	end   time.Time
}

// FuncTag extracts the value of one log field
type FuncTag func(c *fiber.Ctx, d *data) interface{}

func getFuncTagMap(cfg Config) map[string]FuncTag {
	all := map[string]FuncTag{
		TagPid: func(c *fiber.Ctx, d *data) interface{} {
			return d.pid
		},
		TagLatency: func(c *fiber.Ctx, d *data) interface{} {
			return d.end.Sub(d.start).String()
		},
		TagStatus: func(c *fiber.Ctx, d *data) interface{} {
			return c.Response().StatusCode()
		},
		TagMethod: func(c *fiber.Ctx, d *data) interface{} {
			return c.Method()
		},
		TagPath: func(c *fiber.Ctx, d *data) interface{} {
			return c.Path()
		},
		TagRoute: func(c *fiber.Ctx, d *data) interface{} {
			return c.Route().Path
		},
		TagIP: func(c *fiber.Ctx, d *data) interface{} {
			return c.IP()
		},
		TagBody: func(c *fiber.Ctx, d *data) interface{} {
			if !cfg.bodyAllowed(string(c.Request().Header.ContentType())) {
				return ""
			}
			return cut(c.Body())
		},
		TagResBody: func(c *fiber.Ctx, d *data) interface{} {
			if c.Response().StatusCode() < 300 || !cfg.bodyAllowed(string(c.Response().Header.ContentType())) {
				return ""
			}
			return cut(c.Response().Body())
		},
		TagUserID: func(c *fiber.Ctx, d *data) interface{} {
			actor, _ := c.Locals("actor").(models.Actor)
			return actor.UserID
		},
		RequestID: func(c *fiber.Ctx, d *data) interface{} {
			return c.GetRespHeader(fiber.HeaderXRequestID)
		},
	}
	result := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := all[tag]; ok {
			result[tag] = ft
		}
	}
	return result
}

func cut(body []byte) string {
	if len(body) > maxBodyLen {
		return string(body[:maxBodyLen]) + "..."
	}
	return string(body)
}
