package image

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"snapvault/internal/entity"
	"snapvault/pkg/types/errs"
)

// ConfirmUpload commits a completed direct upload: it validates the
// temporary object, hashes its content, deduplicates against existing
// records, and schedules transcoding for new content.
func (uc *UseCase) ConfirmUpload(ctx context.Context, ownerID uuid.UUID, fileKey string) (*entity.Image, error) {
	return uc.commit(ctx, ownerID, fileKey, path.Base(fileKey))
}

// UploadDirect is the server-proxied path: the bytes travel through the
// application instead of a presigned URL. It stages them at a temporary key
// and reuses the commit logic unchanged.
func (uc *UseCase) UploadDirect(ctx context.Context, ownerID uuid.UUID, filename, mimeType string, data io.Reader, size int64) (*entity.Image, error) {
	if !uc.allowedMime[mimeType] {
		return nil, fmt.Errorf("ImageUseCase - UploadDirect: %w", errs.ErrUnsupportedMediaType)
	}

	fileKey := TempUploadKey(ownerID, mimeType)

	if err := uc.blobRepo.Upload(ctx, fileKey, data, mimeType, size); err != nil {
		return nil, fmt.Errorf("ImageUseCase - UploadDirect - uc.blobRepo.Upload: %w", err)
	}

	return uc.commit(ctx, ownerID, fileKey, filename)
}

// commit is the dedup/insert step shared by both upload paths.
//
// The temporary object is deleted here only on the paths where no worker
// will ever consume it: size rejection, dedup fast path, and losing the
// uniqueness race. When a fresh pending record is created, ownership of the
// temporary object transfers to the transcode worker.
func (uc *UseCase) commit(ctx context.Context, ownerID uuid.UUID, fileKey, originalFilename string) (*entity.Image, error) {
	exists, err := uc.blobRepo.Exists(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - commit - uc.blobRepo.Exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("ImageUseCase - commit: %w", errs.ErrObjectNotFound)
	}

	size, declaredMime, err := uc.blobRepo.Stat(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - commit - uc.blobRepo.Stat: %w", err)
	}

	if size > uc.cfg.MaxFileSize {
		uc.deleteTemp(ctx, fileKey)

		return nil, fmt.Errorf("ImageUseCase - commit: %w", errs.ErrPayloadTooLarge)
	}

	contents, err := uc.blobRepo.DownloadBytes(ctx, fileKey)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - commit - uc.blobRepo.DownloadBytes: %w", err)
	}

	digest := sha256.Sum256(contents)
	contentHash := hex.EncodeToString(digest[:])

	// dedup fast path: identical content already has a record, the canonical
	// object exists or will be produced by that record's worker
	existing, err := uc.metadataRepo.GetByOwnerAndHash(ctx, ownerID, contentHash)
	if err == nil {
		uc.deleteTemp(ctx, fileKey)

		return existing, nil
	}
	if !errors.Is(err, errs.ErrRecordNotFound) {
		return nil, fmt.Errorf("ImageUseCase - commit - uc.metadataRepo.GetByOwnerAndHash: %w", err)
	}

	img := &entity.Image{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		OriginalFilename: originalFilename,
		StorageKey:       CanonicalKey(ownerID, contentHash),
		MimeType:         declaredMime,
		Size:             size,
		ContentHash:      contentHash,
		Status:           entity.Pending,
		CreatedAt:        time.Now(),
	}

	// record and transcode task land in one transaction so that scheduling
	// survives a crash between commit and dispatch
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.metadataRepo.Create(ctx, img); err != nil {
			return fmt.Errorf("uc.metadataRepo.Create: %w", err)
		}

		event, err := newTranscodeEvent(img.ID, fileKey)
		if err != nil {
			return fmt.Errorf("newTranscodeEvent: %w", err)
		}

		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		// a concurrent commit of identical content won the insert race;
		// recover by returning the winner, never surface the violation
		if errors.Is(err, errs.ErrDuplicateImage) {
			uc.deleteTemp(ctx, fileKey)

			winner, ferr := uc.metadataRepo.GetByOwnerAndHash(ctx, ownerID, contentHash)
			if ferr != nil {
				return nil, fmt.Errorf("ImageUseCase - commit - uc.metadataRepo.GetByOwnerAndHash after duplicate: %w", ferr)
			}

			return winner, nil
		}

		return nil, fmt.Errorf("ImageUseCase - commit - uc.transactor.WithinTransaction: %w", err)
	}

	return img, nil
}

func (uc *UseCase) deleteTemp(ctx context.Context, fileKey string) {
	if err := uc.blobRepo.Delete(ctx, fileKey); err != nil {
		uc.logger.Warn("failed to delete key=%s, error=%v", fileKey, err)
	}
}
