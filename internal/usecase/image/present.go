package image

import (
	"context"
	"time"

	"snapvault/internal/dto"
	"snapvault/internal/entity"
)

// Present derives the user-facing view of a record. The url field is
// populated only when the record is ready; for pending and failed records it
// stays nil. Signing failures degrade to the public URL and never propagate.
func (uc *UseCase) Present(ctx context.Context, img *entity.Image) dto.ImageView {
	var url *string

	if img.Status == entity.Ready {
		signed, err := uc.blobRepo.PresignGet(ctx, img.StorageKey, uc.cfg.DownloadURLTTL)
		if err != nil {
			uc.logger.Warn("ImageUseCase - Present - uc.blobRepo.PresignGet: %v", err)

			signed = uc.blobRepo.PublicURL(img.StorageKey)
		}
		url = &signed
	}

	return dto.ImageView{
		ID:               img.ID,
		OriginalFilename: img.OriginalFilename,
		MimeType:         img.MimeType,
		FileSize:         img.Size,
		Width:            img.Width,
		Height:           img.Height,
		URL:              url,
		Status:           string(img.Status),
		CreatedAt:        img.CreatedAt.Format(time.RFC3339),
	}
}
