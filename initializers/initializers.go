package initializers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	"microloan-backend/fiberlog"
	approvalnotification "microloan-backend/lib/approval-notification"
	approvalrequest "microloan-backend/lib/approval-request"
	"microloan-backend/lib/events"
	xlsexport "microloan-backend/lib/export/xls"
	fundingworker "microloan-backend/lib/funding-worker"
	"microloan-backend/lib/kyc"
	loanfunding "microloan-backend/lib/loan-funding"
	payloadschema "microloan-backend/lib/payload-schema"
	reminderworker "microloan-backend/lib/reminder-worker"
	unifiedview "microloan-backend/lib/unified-view"
	userrole "microloan-backend/lib/user-role"
	connectionhub "microloan-backend/lib/ws/hub/connection-hub"
)

var LoggerConfig *fiberlog.Config

var consumer *events.Consumer

func InitAllServices(ctx context.Context) {
	config.InitConfig()
	LoggerConfig = InitLogger(config.Conf.App.LogLevel)
	InitDBConnection()
	InitS3()
	approvalnotification.NewHandler()
	connectionhub.Init(approvalnotification.Instance)
	userrole.NewHandler()
	loanfunding.NewHandler()
	kyc.NewHandler()
	xlsexport.NewHandler()
	InitEvents(ctx)
	validator, err := payloadschema.NewValidator()
	if err != nil {
		panic(err.Error())
	}
	approvalrequest.NewHandler(validator)
	unifiedview.NewHandler()
	go initWorkers(ctx)
}

// InitEvents connects the request change publisher and the funding consumer.
// Without a broker the services keep working on the log-only publisher.
func InitEvents(ctx context.Context) {
	if !*config.Conf.Amqp.Enabled {
		return
	}
	publisher, err := events.NewPublisher(config.Conf.Amqp.URL, config.Conf.Amqp.Exchange)
	if err != nil {
		log.WithError(err).Error("failed to connect event publisher, events are logged only")
		return
	}
	events.Instance = publisher

	consumer, err = events.NewConsumer(config.Conf.Amqp.URL, config.Conf.Amqp.Exchange)
	if err != nil {
		log.WithError(err).Error("failed to connect event consumer, funding relies on the sweeper")
		return
	}
	go func() {
		if err := fundingworker.StartConsumer(ctx, consumer, config.Conf.Amqp.FundingQueue); err != nil {
			log.WithError(err).Error("funding consumer stopped")
		}
	}()
}

func CloseServices() {
	if consumer != nil {
		consumer.Close()
	}
	events.Instance.Close()
}

// start with a gap to spread the load
func initWorkers(ctx context.Context) {
	// funds approved loan applications missed by the inline path
	fundingworker.StartWorker(ctx)

	if makeTimeGap(ctx) {
		// reminds reviewers about stale requests
		reminderworker.StartWorker(ctx)
	}
}

func makeTimeGap(ctx context.Context) (canRun bool) {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(time.Second * 10):
		return true
	}
}
