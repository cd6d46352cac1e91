package image

import (
	"fmt"

	"github.com/google/uuid"
)

// Canonical transcode target. The processor encodes everything to this
// format, so keys, mime and extension are pinned together here.
const (
	CanonicalMimeType = "image/jpeg"
	CanonicalExt      = "jpg"
)

// CanonicalKey maps (owner, content hash) to the stable storage key of the
// transcoded object. Pure function: identical content for the same owner
// always resolves to the same key.
func CanonicalKey(ownerID uuid.UUID, contentHash string) string {
	return fmt.Sprintf("images/%s/%s.%s", ownerID, contentHash, CanonicalExt)
}

// TempUploadKey mints a fresh key in the per-owner upload namespace. The
// random id is never reused, so an abandoned upload leaves an orphaned
// object until external cleanup sweeps it.
func TempUploadKey(ownerID uuid.UUID, mimeType string) string {
	return fmt.Sprintf("uploads/%s/%s.%s", ownerID, uuid.New(), extensionFor(mimeType))
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	default:
		return "jpg"
	}
}
