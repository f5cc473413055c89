package storage

import (
	"context"

	"github.com/rs/zerolog"
)

type loggingStorage struct {
	next ObjectStorage
	log  zerolog.Logger
}

// WithLogging wraps s so every bucket check and upload outcome emits one log line.
func WithLogging(s ObjectStorage, log zerolog.Logger) ObjectStorage {
	return &loggingStorage{next: s, log: log}
}

func (l *loggingStorage) Bucket() string { return l.next.Bucket() }

func (l *loggingStorage) CheckBucket(ctx context.Context) error {
	err := l.next.CheckBucket(ctx)
	if err != nil {
		ev := l.log.Error().Err(err).Str("bucket", l.next.Bucket())
		if kind, ok := BucketErrorKindOf(err); ok {
			ev = ev.Str("reason", kind.String())
		}
		ev.Msg("error accessing bucket")
		return err
	}

	l.log.Info().Str("bucket", l.next.Bucket()).Msg("bucket exists and is accessible")
	return nil
}

func (l *loggingStorage) UploadFile(ctx context.Context, path, key string) (string, error) {
	key, err := l.next.UploadFile(ctx, path, key)
	if err != nil {
		ev := l.log.Error().Err(err).
			Str("bucket", l.next.Bucket()).
			Str("key", key).
			Str("path", path)
		if kind, ok := UploadErrorKindOf(err); ok {
			ev = ev.Str("reason", kind.String())
		}
		ev.Msg("upload failed")
		return key, err
	}

	l.log.Info().
		Str("path", path).
		Str("destination", l.next.Bucket()+"/"+key).
		Msg("file uploaded")
	return key, nil
}
