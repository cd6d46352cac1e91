package infrastructure

import (
	"context"

	"snapvault/internal/entity"
)

type (
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	// ImageProcessor transcodes arbitrary decodable image bytes into the
	// canonical target format.
	ImageProcessor interface {
		Transcode(ctx context.Context, data []byte) (*TranscodeResult, error)
	}
)

type TranscodeResult struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}
