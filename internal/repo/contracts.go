package repo

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"snapvault/internal/entity"
)

type (
	// BlobRepo is the object-storage capability: key-addressed byte blobs
	// with presigned access.
	BlobRepo interface {
		Exists(ctx context.Context, key string) (bool, error)
		// Stat returns size and content type of the object at key.
		Stat(ctx context.Context, key string) (int64, string, error)
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
		// PresignPut mints a write-only URL scoped to exactly key, expiring
		// after ttl.
		PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
		PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
		// PublicURL is the unsigned fallback for backends without presigning.
		PublicURL(key string) string
	}

	// ImageMetadataRepo persists image records. Create returns
	// errs.ErrDuplicateImage when the (owner_id, content_hash) constraint is
	// violated; callers recover by re-fetching the winner.
	ImageMetadataRepo interface {
		Create(ctx context.Context, image *entity.Image) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		GetByOwnerAndHash(ctx context.Context, ownerID uuid.UUID, contentHash string) (*entity.Image, error)
		ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.Image, error)
		CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
		// MarkReady performs the single pending -> ready transition, setting
		// dimensions and canonical mime/size atomically. Returns
		// errs.ErrRecordNotFound when the record is gone or no longer pending.
		MarkReady(ctx context.Context, id uuid.UUID, mimeType string, size int64, width, height int) error
		// MarkFailedIfNotReady flips the record to failed unless a late
		// success already made it ready.
		MarkFailedIfNotReady(ctx context.Context, id uuid.UUID) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	// OutboxRepo persists transcode tasks alongside image records so that
	// scheduling survives crashes between commit and dispatch.
	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, ids uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs) error
		// MarkMaxRetriesAsFailed dead-letters exhausted tasks and returns the
		// ids of the images they referenced.
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) (uuid.UUIDs, error)
		DeleteOldProcessedAndFailed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
