package initializers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	s3client "microloan-backend/s3"
)

func InitS3() {
	if config.Conf.S3.Endpoint == "" {
		log.Warn("S3 endpoint is not configured, document links are disabled")
		return
	}
	client, err := s3client.NewClient()
	if err != nil {
		log.WithError(err).Error("failed to init S3 client")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = client.MakeBucket(ctx); err != nil {
		log.WithError(err).Error("S3 bucket check failed")
	}
	s3client.Instance = client
	log.Info("S3 client initialized")
}
