package image

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"snapvault/internal/entity"
)

func newTranscodeEvent(imageID uuid.UUID, uploadKey string) (*entity.OutboxEvent, error) {
	payload := map[string]interface{}{
		"image_id":   imageID,
		"upload_key": uploadKey,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: imageID,
		Payload:     b,
		Status:      entity.Pending,
		CreatedAt:   time.Now(),
		RetryCount:  0,
	}, nil
}
