package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ObjectGetter is the subset of *s3.Client used to fetch dumps.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config describes how dumps are fetched from S3 or an S3-compatible store.
// Static keys are optional; without them the default AWS credential chain applies.
type S3Config struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3ConfigFromEnv reads MNXNORM_S3_* variables, falling back to AWS_REGION
// and us-east-1 for the region.
func S3ConfigFromEnv() S3Config {
	cfg := S3Config{
		Region:          os.Getenv("MNXNORM_S3_REGION"),
		Endpoint:        os.Getenv("MNXNORM_S3_ENDPOINT"),
		PathStyle:       strings.EqualFold(os.Getenv("MNXNORM_S3_PATH_STYLE"), "true"),
		AccessKeyID:     os.Getenv("MNXNORM_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("MNXNORM_S3_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("MNXNORM_S3_SESSION_TOKEN"),
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return cfg
}

func (c S3Config) loadOptions() ([]func(*config.LoadOptions) error, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	switch {
	case c.AccessKeyID != "" && c.SecretAccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken)))
	case c.AccessKeyID != "" || c.SecretAccessKey != "":
		return nil, fmt.Errorf("MNXNORM_S3_ACCESS_KEY_ID and MNXNORM_S3_SECRET_ACCESS_KEY must be set together: %w", mnx.ErrInvalidConfig)
	}
	return opts, nil
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts, err := cfg.loadOptions()
	if err != nil {
		return nil, err
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

func newS3ClientFromEnv(ctx context.Context) (ObjectGetter, error) {
	return NewS3Client(ctx, S3ConfigFromEnv())
}

func getObject(ctx context.Context, client ObjectGetter, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("s3://%s/%s: %w: %w", bucket, key, mnx.ErrSourceNotFound, err)
		}
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return content, nil
}
