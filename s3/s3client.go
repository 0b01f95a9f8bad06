package s3client

import (
	"context"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"microloan-backend/config"
)

type Provider interface {
	MakeBucket(ctx context.Context) error
	PresignedGetURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

var Instance Provider

type s3client struct {
	minioClient *minio.Client
	bucketName  string
}

func (s s3client) MakeBucket(ctx context.Context) error {
	location := "us-east-1"
	exists, err := s.minioClient.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = s.minioClient.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: location})
	if err != nil {
		return err
	}
	return nil
}

func (s s3client) PresignedGetURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	if objectKey == "" {
		return "", errors.New("empty object key")
	}
	u, err := s.minioClient.PresignedGetObject(ctx, s.bucketName, objectKey, ttl, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, "presign object")
	}
	return u.String(), nil
}

func NewClient() (Provider, error) {
	useSSL := config.Conf.S3.UseSSL != nil && *config.Conf.S3.UseSSL
	minioClient, err := minio.New(config.Conf.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Conf.S3.AccessKeyID, config.Conf.S3.SecretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &s3client{minioClient: minioClient, bucketName: config.Conf.S3.BucketName}, nil
}
