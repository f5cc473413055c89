package storage

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// BucketErrorKind classifies a failed bucket check.
type BucketErrorKind int

const (
	BucketTransientOrUnknown BucketErrorKind = iota
	BucketNotFound
	BucketAccessDenied
)

func (k BucketErrorKind) String() string {
	switch k {
	case BucketNotFound:
		return "not_found"
	case BucketAccessDenied:
		return "access_denied"
	default:
		return "transient_or_unknown"
	}
}

// BucketError is returned by CheckBucket.
type BucketError struct {
	Kind   BucketErrorKind
	Bucket string
	Err    error
}

func (e *BucketError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bucket %s: %s", e.Bucket, e.Kind)
	}
	return fmt.Sprintf("bucket %s: %s: %v", e.Bucket, e.Kind, e.Err)
}

func (e *BucketError) Unwrap() error { return e.Err }

// UploadErrorKind classifies a failed upload.
type UploadErrorKind int

const (
	UploadTransferFailed UploadErrorKind = iota
	UploadMissingCredentials
)

func (k UploadErrorKind) String() string {
	if k == UploadMissingCredentials {
		return "missing_credentials"
	}
	return "transfer_failed"
}

// UploadError is returned by UploadFile.
type UploadError struct {
	Kind   UploadErrorKind
	Bucket string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upload %s/%s: %s", e.Bucket, e.Key, e.Kind)
	}
	return fmt.Sprintf("upload %s/%s: %s: %v", e.Bucket, e.Key, e.Kind, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// BucketErrorKindOf reports the kind of the first *BucketError in err's chain.
func BucketErrorKindOf(err error) (BucketErrorKind, bool) {
	var be *BucketError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}

// UploadErrorKindOf reports the kind of the first *UploadError in err's chain.
func UploadErrorKindOf(err error) (UploadErrorKind, bool) {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Kind, true
	}
	return 0, false
}

// classifyBucket maps a service error code and HTTP status to a kind. The code
// wins when it is recognised; HEAD responses carry no body, so the status is
// often all there is.
func classifyBucket(code string, status int) BucketErrorKind {
	switch strings.ToLower(code) {
	case "notfound", "nosuchbucket":
		return BucketNotFound
	case "accessdenied", "forbidden", "allaccessdisabled":
		return BucketAccessDenied
	}

	switch status {
	case http.StatusNotFound:
		return BucketNotFound
	case http.StatusForbidden:
		return BucketAccessDenied
	}
	return BucketTransientOrUnknown
}
