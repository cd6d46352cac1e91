package image

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"snapvault/internal/dto"
	"snapvault/pkg/types/errs"
)

// IssueUploadURL mints a write-only, time-boxed URL into the owner's upload
// namespace. No record is created here: a client that never confirms leaves
// an orphaned temporary object behind, which is accepted.
func (uc *UseCase) IssueUploadURL(ctx context.Context, ownerID uuid.UUID, filename, mimeType string) (*dto.UploadURL, error) {
	if !uc.allowedMime[mimeType] {
		return nil, fmt.Errorf("ImageUseCase - IssueUploadURL: %w", errs.ErrUnsupportedMediaType)
	}

	fileKey := TempUploadKey(ownerID, mimeType)

	url, err := uc.blobRepo.PresignPut(ctx, fileKey, mimeType, uc.cfg.UploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - IssueUploadURL - uc.blobRepo.PresignPut: %w", err)
	}

	return &dto.UploadURL{
		UploadURL: url,
		FileKey:   fileKey,
	}, nil
}
