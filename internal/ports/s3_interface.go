package ports

import (
	"context"
	"time"
)

// AttachmentStorage : object storage for feedback attachments
type AttachmentStorage interface {
	GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error)
	GeneratePresignedPutURL(ctx context.Context, key string, expire time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}
