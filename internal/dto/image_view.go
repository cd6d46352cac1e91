package dto

import "github.com/google/uuid"

// ImageView is the user-facing shape of an image record. URL is non-nil
// only for ready images.
type ImageView struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"file_size"`
	Width            *int      `json:"width"`
	Height           *int      `json:"height"`
	URL              *string   `json:"url"`
	Status           string    `json:"status"`
	CreatedAt        string    `json:"created_at"`
}

type ImagePage struct {
	Data        []ImageView `json:"data"`
	CurrentPage int         `json:"current_page"`
	LastPage    int         `json:"last_page"`
	PerPage     int         `json:"per_page"`
	Total       int         `json:"total"`
}
