// Package transcoder implements the background half of the pipeline: it
// consumes one temporary upload, produces the canonical object, and drives
// the record's single pending -> ready or pending -> failed transition.
package transcoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"snapvault/internal/entity"
	"snapvault/internal/infrastructure"
	"snapvault/internal/repo"
	"snapvault/pkg/logger"
	"snapvault/pkg/types/errs"
)

type UseCase struct {
	blobRepo     repo.BlobRepo
	metadataRepo repo.ImageMetadataRepo
	processor    infrastructure.ImageProcessor

	logger logger.Interface
}

func New(
	blobRepo repo.BlobRepo,
	metadataRepo repo.ImageMetadataRepo,
	processor infrastructure.ImageProcessor,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		blobRepo:     blobRepo,
		metadataRepo: metadataRepo,
		processor:    processor,
		logger:       l,
	}
}

// Process handles one transcode task. Replay-safe: a record that is already
// ready short-circuits to temp cleanup, so duplicate dispatch and platform
// redelivery cannot re-transcode or clobber metadata.
//
// Failed attempts re-raise without touching the record: it stays pending so
// a later attempt that fully succeeds can still mark it ready. The terminal
// failed write belongs to Abandon alone, after the dispatcher has given up.
//
// The temporary object is deleted on every exit path past the record fetch;
// the dedup contract guarantees exactly one commit+worker pair owns it.
func (uc *UseCase) Process(ctx context.Context, imageID uuid.UUID, uploadKey string) error {
	img, err := uc.metadataRepo.GetByID(ctx, imageID)
	if err != nil {
		// no record to transition - fatal, not retryable
		return fmt.Errorf("TranscoderUseCase - Process - uc.metadataRepo.GetByID: %w", err)
	}

	defer uc.deleteTemp(ctx, uploadKey)

	if img.Status == entity.Ready {
		return nil
	}

	contents, err := uc.blobRepo.DownloadBytes(ctx, uploadKey)
	if err != nil {
		return fmt.Errorf("TranscoderUseCase - Process - uc.blobRepo.DownloadBytes: %w", err)
	}

	result, err := uc.processor.Transcode(ctx, contents)
	if err != nil {
		return fmt.Errorf("TranscoderUseCase - Process - uc.processor.Transcode: %w", err)
	}

	err = uc.blobRepo.UploadBytes(ctx, img.StorageKey, result.Data, result.MimeType)
	if err != nil {
		return fmt.Errorf("TranscoderUseCase - Process - uc.blobRepo.UploadBytes: %w", err)
	}

	err = uc.metadataRepo.MarkReady(ctx, img.ID, result.MimeType, int64(len(result.Data)), result.Width, result.Height)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			// the record was deleted (or force-failed) while we transcoded;
			// the canonical object we just wrote is garbage, remove it
			if delErr := uc.blobRepo.Delete(ctx, img.StorageKey); delErr != nil {
				uc.logger.Warn("failed to delete key=%s, error=%v", img.StorageKey, delErr)
			}

			return nil
		}

		return fmt.Errorf("TranscoderUseCase - Process - uc.metadataRepo.MarkReady: %w", err)
	}

	return nil
}

// Abandon is the retry-exhaustion handler: it forces the record to failed
// unless a late success already made it ready.
func (uc *UseCase) Abandon(ctx context.Context, imageID uuid.UUID) error {
	err := uc.metadataRepo.MarkFailedIfNotReady(ctx, imageID)
	if err != nil {
		return fmt.Errorf("TranscoderUseCase - Abandon - uc.metadataRepo.MarkFailedIfNotReady: %w", err)
	}

	return nil
}

func (uc *UseCase) deleteTemp(ctx context.Context, uploadKey string) {
	if err := uc.blobRepo.Delete(ctx, uploadKey); err != nil {
		uc.logger.Warn("failed to delete key=%s, error=%v", uploadKey, err)
	}
}
