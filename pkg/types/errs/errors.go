package errs

import "errors"

var (
	// ErrRecordNotFound - no row in the database matched the lookup.
	ErrRecordNotFound = errors.New("record not found")

	// ErrObjectNotFound - the referenced storage object does not exist.
	ErrObjectNotFound = errors.New("storage object not found")

	// ErrPayloadTooLarge - the uploaded object exceeds the configured size ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrDuplicateImage - insert lost the (owner_id, content_hash) uniqueness race.
	// Recovered locally, never surfaced to callers.
	ErrDuplicateImage = errors.New("duplicate image for owner and content hash")

	// ErrForbidden - the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnsupportedMediaType - the declared MIME type is not in the allow list.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrImageDecode - the object bytes are not a decodable image. Not retryable.
	ErrImageDecode = errors.New("image decode failed")
)
