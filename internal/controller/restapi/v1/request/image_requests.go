package request

type UploadURL struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
}

type ConfirmUpload struct {
	FileKey string `json:"file_key"`
}
