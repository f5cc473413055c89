package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMinio struct {
	exists    bool
	existsErr error
	putErr    error
	puts      []string
}

func (f *fakeMinio) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeMinio) FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.puts = append(f.puts, bucketName+"/"+objectName)
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func newFakeMinioClient(api minioAPI, accessKey, secret string) *MinioClient {
	return &MinioClient{
		api:    api,
		creds:  credentials.NewStaticV4(accessKey, secret, ""),
		bucket: "sevalla-bucket",
	}
}

func TestMinioCheckBucket(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeMinio
		wantErr bool
		want    BucketErrorKind
	}{
		{"exists", &fakeMinio{exists: true}, false, 0},
		{"does not exist", &fakeMinio{exists: false}, true, BucketNotFound},
		{"access denied", &fakeMinio{existsErr: minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}}, true, BucketAccessDenied},
		{"no such bucket", &fakeMinio{existsErr: minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}}, true, BucketNotFound},
		{"server error", &fakeMinio{existsErr: minio.ErrorResponse{Code: "InternalError", StatusCode: 500}}, true, BucketTransientOrUnknown},
		{"network", &fakeMinio{existsErr: errors.New("i/o timeout")}, true, BucketTransientOrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newFakeMinioClient(tt.api, "key", "secret").CheckBucket(context.Background())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var be *BucketError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tt.want, be.Kind)
			assert.Equal(t, "sevalla-bucket", be.Bucket)
		})
	}
}

func TestMinioUpload(t *testing.T) {
	api := &fakeMinio{}
	path := writeTempFile(t, "temp_file_x.bin", 32)

	key, err := newFakeMinioClient(api, "key", "secret").UploadFile(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, "temp_file_x.bin", key)
	assert.Equal(t, []string{"sevalla-bucket/temp_file_x.bin"}, api.puts)
}

func TestMinioUploadAnonymousIsMissingCredentials(t *testing.T) {
	api := &fakeMinio{}
	path := writeTempFile(t, "a.bin", 1)

	_, err := newFakeMinioClient(api, "", "").UploadFile(context.Background(), path, "")

	kind, ok := UploadErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, UploadMissingCredentials, kind)
	assert.Empty(t, api.puts)
}

func TestMinioUploadTransferFailed(t *testing.T) {
	api := &fakeMinio{putErr: minio.ErrorResponse{Code: "EntityTooLarge", StatusCode: 400}}
	path := writeTempFile(t, "a.bin", 1)

	_, err := newFakeMinioClient(api, "key", "secret").UploadFile(context.Background(), path, "")

	kind, ok := UploadErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, UploadTransferFailed, kind)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		secure bool
	}{
		{"https://s3.sevalla.storage", "s3.sevalla.storage", true},
		{"http://localhost:9000", "localhost:9000", false},
		{"s3.example.com", "s3.example.com", true},
		{"//minio:9000", "minio:9000", true},
	}
	for _, tt := range tests {
		host, secure, err := splitEndpoint(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.secure, secure, tt.in)
	}

	_, _, err := splitEndpoint("https://")
	assert.Error(t, err)
}

func TestNewMinioClientValidates(t *testing.T) {
	_, err := NewMinioClient(Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewMinioClient(Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	c, err := NewMinioClient(Config{Endpoint: "http://localhost:9000", Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s", UsePathStyle: true})
	require.NoError(t, err)
	assert.Equal(t, "b", c.Bucket())
}

func TestMinioClientDoesNotRetryBucketCheck(t *testing.T) {
	fake := &fakeS3Server{headStatus: http.StatusServiceUnavailable}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := NewMinioClient(Config{
		Provider:        ProviderMinio,
		Bucket:          "my-test-bucket",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	err = c.CheckBucket(context.Background())

	kind, ok := BucketErrorKindOf(err)
	require.True(t, ok, "expected *BucketError, got %v", err)
	assert.Equal(t, BucketTransientOrUnknown, kind)

	seen := fake.seen()
	require.Len(t, seen, 1)
	assert.True(t, strings.HasPrefix(seen[0], "HEAD /my-test-bucket"), seen[0])
}
