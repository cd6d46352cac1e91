package dto

// UploadURL is the result of the presigned-upload handshake: a write-only,
// time-boxed URL plus the temporary key the client must confirm later.
type UploadURL struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
}
