package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"

	"snapvault/internal/dto"
	"snapvault/internal/entity"
)

type (
	// ImageUseCase is the ingestion pipeline: presigned-upload handshake,
	// dedup commit, presentation, and the outbox operations the relay needs.
	ImageUseCase interface {
		IssueUploadURL(ctx context.Context, ownerID uuid.UUID, filename, mimeType string) (*dto.UploadURL, error)
		ConfirmUpload(ctx context.Context, ownerID uuid.UUID, fileKey string) (*entity.Image, error)
		// UploadDirect is the server-proxied convenience path: it performs
		// the temporary put itself, then runs the same commit logic.
		UploadDirect(ctx context.Context, ownerID uuid.UUID, filename, mimeType string, data io.Reader, size int64) (*entity.Image, error)
		GetImage(ctx context.Context, ownerID, id uuid.UUID) (*entity.Image, error)
		ListImages(ctx context.Context, ownerID uuid.UUID, page int) (*dto.ImagePage, error)
		DeleteImage(ctx context.Context, ownerID, id uuid.UUID) error
		// Present derives the user-facing view; url is set only for ready
		// records and URL-signing failures degrade, never error.
		Present(ctx context.Context, image *entity.Image) dto.ImageView

		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkExhaustedAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
	}

	// TranscoderUseCase is the background half of the pipeline.
	TranscoderUseCase interface {
		// Process runs the full transcode handler for one record. It is
		// idempotent for a given (imageID, uploadKey) and safe to replay.
		Process(ctx context.Context, imageID uuid.UUID, uploadKey string) error
		// Abandon force-fails a record after retry exhaustion, unless a late
		// success already made it ready.
		Abandon(ctx context.Context, imageID uuid.UUID) error
	}
)
