package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// s3API is the subset of *s3.Client used here.
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Client implements ObjectStorage on the AWS SDK.
type S3Client struct {
	api    s3API
	creds  aws.CredentialsProvider
	bucket string
}

// NewS3Client builds an S3 client with static credentials from cfg. A custom
// endpoint turns it into a client for any S3-compatible service.
func NewS3Client(ctx context.Context, cfg Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// single attempt; the run aborts on the first failure
		o.Retryer = aws.NopRetryer{}
	})

	return &S3Client{
		api:    client,
		creds:  awsCfg.Credentials,
		bucket: cfg.Bucket,
	}, nil
}

func (c *S3Client) Bucket() string { return c.bucket }

// CheckBucket issues a HeadBucket request.
func (c *S3Client) CheckBucket(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	return &BucketError{
		Kind:   classifyS3Error(err),
		Bucket: c.bucket,
		Err:    err,
	}
}

// UploadFile resolves credentials, then PUTs the file body.
func (c *S3Client) UploadFile(ctx context.Context, path, key string) (string, error) {
	key = ObjectKey(path, key)

	if err := c.checkCredentials(ctx); err != nil {
		return key, &UploadError{Kind: UploadMissingCredentials, Bucket: c.bucket, Key: key, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return key, &UploadError{Kind: UploadTransferFailed, Bucket: c.bucket, Key: key, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return key, &UploadError{Kind: UploadTransferFailed, Bucket: c.bucket, Key: key, Err: err}
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		kind := UploadTransferFailed
		if isMissingCredentials(err) {
			kind = UploadMissingCredentials
		}
		return key, &UploadError{Kind: kind, Bucket: c.bucket, Key: key, Err: err}
	}
	return key, nil
}

func (c *S3Client) checkCredentials(ctx context.Context) error {
	if c.creds == nil {
		return errors.New("no credentials provider configured")
	}
	v, err := c.creds.Retrieve(ctx)
	if err != nil {
		return err
	}
	if !v.HasKeys() {
		return errors.New("resolved credentials are empty")
	}
	return nil
}

func isMissingCredentials(err error) bool {
	var empty *credentials.StaticCredentialsEmptyError
	return errors.As(err, &empty)
}

type httpStatusError interface {
	HTTPStatusCode() int
}

func classifyS3Error(err error) BucketErrorKind {
	var (
		code   string
		status int
	)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}
	var se httpStatusError
	if errors.As(err, &se) {
		status = se.HTTPStatusCode()
	}
	return classifyBucket(code, status)
}

var _ ObjectStorage = (*S3Client)(nil)
