// Package image implements the ingestion pipeline use-case: the
// presigned-upload handshake, the content-addressed dedup commit, record
// presentation and deletion, and the outbox operations the relay polls.
package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"snapvault/config"
	"snapvault/internal/dto"
	"snapvault/internal/entity"
	"snapvault/internal/repo"
	"snapvault/pkg/logger"
	"snapvault/pkg/types/errs"
)

const _pageSize = 20

type UseCase struct {
	blobRepo     repo.BlobRepo
	metadataRepo repo.ImageMetadataRepo
	outboxRepo   repo.OutboxRepo
	transactor   repo.Transactor

	cfg    config.Upload
	logger logger.Interface

	allowedMime map[string]bool
}

func New(
	blobRepo repo.BlobRepo,
	metadataRepo repo.ImageMetadataRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	cfg config.Upload,
	l logger.Interface,
) *UseCase {
	allowed := make(map[string]bool, len(cfg.AllowedMimeTypes))
	for _, m := range cfg.AllowedMimeTypes {
		allowed[m] = true
	}

	return &UseCase{
		blobRepo:     blobRepo,
		metadataRepo: metadataRepo,
		outboxRepo:   outboxRepo,
		transactor:   transactor,
		cfg:          cfg,
		logger:       l,
		allowedMime:  allowed,
	}
}

func (uc *UseCase) GetImage(ctx context.Context, ownerID, id uuid.UUID) (*entity.Image, error) {
	img, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - GetImage - uc.metadataRepo.GetByID: %w", err)
	}

	if img.OwnerID != ownerID {
		return nil, fmt.Errorf("ImageUseCase - GetImage: %w", errs.ErrForbidden)
	}

	return img, nil
}

func (uc *UseCase) ListImages(ctx context.Context, ownerID uuid.UUID, page int) (*dto.ImagePage, error) {
	if page < 1 {
		page = 1
	}

	total, err := uc.metadataRepo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - ListImages - uc.metadataRepo.CountByOwner: %w", err)
	}

	images, err := uc.metadataRepo.ListByOwner(ctx, ownerID, _pageSize, (page-1)*_pageSize)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - ListImages - uc.metadataRepo.ListByOwner: %w", err)
	}

	views := make([]dto.ImageView, 0, len(images))
	for _, img := range images {
		views = append(views, uc.Present(ctx, img))
	}

	lastPage := (total + _pageSize - 1) / _pageSize
	if lastPage < 1 {
		lastPage = 1
	}

	return &dto.ImagePage{
		Data:        views,
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     _pageSize,
		Total:       total,
	}, nil
}

// DeleteImage removes the canonical object, then the record. The storage
// delete is best effort: a dangling object is garbage, a dangling record
// would keep resolving to a missing object. A transcode racing this delete
// is tolerated; MarkReady is gated on the record still being pending and
// the worker cleans up its own orphaned write.
func (uc *UseCase) DeleteImage(ctx context.Context, ownerID, id uuid.UUID) error {
	img, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ImageUseCase - DeleteImage - uc.metadataRepo.GetByID: %w", err)
	}

	if img.OwnerID != ownerID {
		return fmt.Errorf("ImageUseCase - DeleteImage: %w", errs.ErrForbidden)
	}

	if err := uc.blobRepo.Delete(ctx, img.StorageKey); err != nil {
		uc.logger.Warn("failed to delete key=%s, error=%v", img.StorageKey, err)
	}

	err = uc.metadataRepo.Delete(ctx, id)
	if err != nil && !errors.Is(err, errs.ErrRecordNotFound) {
		return fmt.Errorf("ImageUseCase - DeleteImage - uc.metadataRepo.Delete: %w", err)
	}

	return nil
}
