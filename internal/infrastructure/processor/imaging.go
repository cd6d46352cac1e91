package processor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"snapvault/internal/infrastructure"
	"snapvault/pkg/types/errs"
)

const (
	_jpegQuality = 80

	_canonicalMime = "image/jpeg"
)

// ImageProcessor normalizes uploads: whatever decodable format comes in,
// JPEG comes out. Transcoding the same input is deterministic, so duplicate
// writes to the same canonical key produce equivalent objects.
type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

func (p *ImageProcessor) Transcode(ctx context.Context, data []byte) (*infrastructure.TranscodeResult, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Transcode - imaging.Decode: %w: %w", errs.ErrImageDecode, err)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(_jpegQuality))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Transcode - imaging.Encode: %w", err)
	}

	bounds := img.Bounds()

	return &infrastructure.TranscodeResult{
		Data:     buf.Bytes(),
		MimeType: _canonicalMime,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
