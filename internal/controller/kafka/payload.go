package kafka

import "github.com/google/uuid"

// TranscodeTask is the wire payload of one scheduled transcode, produced by
// the outbox relay and consumed here.
type TranscodeTask struct {
	ImageID   uuid.UUID `json:"image_id"`
	UploadKey string    `json:"upload_key"`
}
