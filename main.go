package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	apiv1 "microloan-backend/controllers/v1"
	"microloan-backend/db"
	"microloan-backend/fiberlog"
	"microloan-backend/initializers"
	"microloan-backend/lib/metrics"
	userrole "microloan-backend/lib/user-role"
	"microloan-backend/lib/ws"
	"microloan-backend/middleware"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	initializers.InitAllServices(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // limit of 10MB
	})
	app.Use(fiberRecover.New())

	if _, err := os.Stat(config.Conf.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			Path:     "/swagger",
			FilePath: config.Conf.App.SwaggerFile,
		}))
	} else {
		log.WithField("file", config.Conf.App.SwaggerFile).Warn("swagger file not found, docs are disabled")
	}
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/health", func(ctx *fiber.Ctx) error {
		if err := db.PingDB(); err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).SendString(err.Error())
		}
		return ctx.SendStatus(fiber.StatusOK)
	})

	//api
	apiV1 := fiber.New()
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	app.Mount("/api/v1", apiV1)
	apiV1.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))
	apiV1.Use(middleware.Metrics())
	apiV1.Use(middleware.AuthorizationRequired())
	apiV1.Use(middleware.Identity(userrole.Instance))
	apiv1.InitApprovalRequestApiRouters(apiV1)
	apiv1.InitApplicationApiRouters(apiV1)
	apiv1.InitLoanApiRouters(apiV1)
	apiv1.InitKycApiRouters(apiV1)
	apiv1.InitRoleApiRouters(apiV1)
	apiv1.InitNotificationApiRouters(apiV1)

	//ws
	ws.InitWs(apiV1.Group("/ws"))

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	wg := sync.WaitGroup{}
	go func() {
		_ = <-c
		wg.Add(1)
		defer wg.Done()
		log.Info("Gracefully shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Error when try gracefully shutting down")
		}
		initializers.CloseServices()
		time.Sleep(time.Second)
		db.Close()
		log.Info("Gracefully shutting down finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
	log.Info("HTTP server successfully stopped")
}
