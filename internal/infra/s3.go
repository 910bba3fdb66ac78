package infra

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
)

func S3Client(conf *appconfig.Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.AWSRegion),
	}
	if conf.AWSAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AWSAccessKey, conf.AWSSecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(conf.AWSEndpoint)
		}
		o.UsePathStyle = conf.AWSPathStyle
	}), nil
}

func BlobBucket(client *s3.Client, conf *appconfig.Config) blobstore.Bucket {
	return blobstore.New(client, conf.BlobBucket)
}
