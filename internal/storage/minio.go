package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioClient implements ObjectStorage for S3-compatible services
// (Sevalla, MinIO, R2, ...).
type MinioClient struct {
	api    minioAPI
	creds  *credentials.Credentials
	bucket string
}

// NewMinioClient builds a MinioClient. The endpoint may carry an http:// or
// https:// scheme; without one TLS is assumed.
func NewMinioClient(cfg Config) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	host, secure, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	lookup := minio.BucketLookupAuto
	if cfg.UsePathStyle {
		lookup = minio.BucketLookupPath
	}

	// MaxRetry is package-level in minio-go; one attempt per call.
	minio.MaxRetry = 1

	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	client, err := minio.New(host, &minio.Options{
		Creds:        creds,
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", host, err)
	}

	return &MinioClient{
		api:    client,
		creds:  creds,
		bucket: cfg.Bucket,
	}, nil
}

func (c *MinioClient) Bucket() string { return c.bucket }

func (c *MinioClient) CheckBucket(ctx context.Context) error {
	ok, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		return &BucketError{
			Kind:   classifyBucket(resp.Code, resp.StatusCode),
			Bucket: c.bucket,
			Err:    err,
		}
	}
	if !ok {
		return &BucketError{Kind: BucketNotFound, Bucket: c.bucket}
	}
	return nil
}

func (c *MinioClient) UploadFile(ctx context.Context, path, key string) (string, error) {
	key = ObjectKey(path, key)

	if err := c.checkCredentials(); err != nil {
		return key, &UploadError{Kind: UploadMissingCredentials, Bucket: c.bucket, Key: key, Err: err}
	}

	_, err := c.api.FPutObject(ctx, c.bucket, key, path, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return key, &UploadError{Kind: UploadTransferFailed, Bucket: c.bucket, Key: key, Err: err}
	}
	return key, nil
}

// checkCredentials rejects anonymous access; minio-go would otherwise send
// unsigned requests.
func (c *MinioClient) checkCredentials() error {
	if c.creds == nil {
		return errors.New("no credentials configured")
	}
	v, err := c.creds.Get()
	if err != nil {
		return err
	}
	if v.AccessKeyID == "" || v.SecretAccessKey == "" || v.SignerType.IsAnonymous() {
		return errors.New("resolved credentials are empty")
	}
	return nil
}

func splitEndpoint(endpoint string) (host string, secure bool, err error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + strings.TrimPrefix(endpoint, "//")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

var _ ObjectStorage = (*MinioClient)(nil)
