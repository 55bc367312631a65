package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/config"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client    putObjectAPI
	bucket    string
	publicURL string
	logger    *log.Logger
	now       func() time.Time
}

func NewS3Uploader(ctx context.Context, cfg config.MediaConfig, logger *log.Logger) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		if cfg.S3Endpoint != "" {
			publicURL = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
		}
	}

	return newS3Uploader(client, cfg.S3Bucket, publicURL, logger), nil
}

func newS3Uploader(client putObjectAPI, bucket, publicURL string, logger *log.Logger) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			u.logger.Warn("failed to remove temp upload", "path", localPath, "err", err)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := storageKey(localPath, u.now())
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	u.logger.Debug("uploaded media", "bucket", u.bucket, "key", key)
	return SecureURL(u.publicURL + "/" + key), nil
}
