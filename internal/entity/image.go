package entity

import (
	"time"

	"github.com/google/uuid"
)

// Image is the sole persistent entity of the ingestion pipeline.
//
// StorageKey is a pure function of (OwnerID, ContentHash) and never changes
// once set. ContentHash is the sha256 hex digest of the original bytes.
// MimeType and Size hold the declared values at creation and are replaced
// with the canonical transcode results on the pending -> ready transition,
// together with Width and Height.
type Image struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`

	OriginalFilename string `json:"original_filename"`
	StorageKey       string `json:"storage_key"`
	MimeType         string `json:"mime_type"`
	Size             int64  `json:"file_size"`
	ContentHash      string `json:"content_hash"`

	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	Status    Status    `json:"status"` // pending, ready, failed
	CreatedAt time.Time `json:"created_at"`
}
