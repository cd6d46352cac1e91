package v1

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"snapvault/internal/controller/restapi/middleware"
	"snapvault/internal/controller/restapi/v1/request"
	"snapvault/internal/controller/restapi/v1/response"
	"snapvault/pkg/types/errs"
)

const _maxFilenameLen = 255

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// uploadURL issues a presigned write URL into the caller's upload namespace.
// No record is created until the client confirms.
func (r *V1) uploadURL(ctx *fiber.Ctx) error {
	var req request.UploadURL
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusUnprocessableEntity, "invalid request body")
	}

	if strings.TrimSpace(req.Filename) == "" || len(req.Filename) > _maxFilenameLen {
		return errorResponse(ctx, http.StatusUnprocessableEntity, "the filename field is required")
	}

	if !r.allowedMime[req.MimeType] {
		return errorResponse(ctx, http.StatusUnprocessableEntity,
			fmt.Sprintf("the mime type field must be one of: %s", strings.Join(r.cfg.AllowedMimeTypes, ", ")))
	}

	result, err := r.img.IssueUploadURL(ctx.UserContext(), middleware.OwnerID(ctx), req.Filename, req.MimeType)
	if err != nil {
		if errors.Is(err, errs.ErrUnsupportedMediaType) {
			return errorResponse(ctx, http.StatusUnprocessableEntity, "unsupported mime type")
		}
		r.logger.Error(err, "restapi - v1 - uploadURL")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(result)
}

// confirmUpload commits a completed direct upload: dedup, record creation,
// transcode scheduling.
func (r *V1) confirmUpload(ctx *fiber.Ctx) error {
	var req request.ConfirmUpload
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusUnprocessableEntity, "invalid request body")
	}

	if strings.TrimSpace(req.FileKey) == "" {
		return errorResponse(ctx, http.StatusUnprocessableEntity, "the file_key field is required")
	}

	img, err := r.img.ConfirmUpload(ctx.UserContext(), middleware.OwnerID(ctx), req.FileKey)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			return errorResponse(ctx, http.StatusUnprocessableEntity, "file not found on storage")
		case errors.Is(err, errs.ErrPayloadTooLarge):
			return errorResponse(ctx, http.StatusUnprocessableEntity, "file size exceeds 5MB limit")
		}
		r.logger.Error(err, "restapi - v1 - confirmUpload")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusCreated).JSON(r.img.Present(ctx.UserContext(), img))
}

// uploadImage is the server-proxied convenience path: multipart bytes in,
// same dedup/transcode pipeline behind it.
func (r *V1) uploadImage(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "file is required")
	}

	if file.Size == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "file is empty")
	}

	if file.Size > r.cfg.MaxFileSize {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file size cant be more than %d bytes", r.cfg.MaxFileSize))
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if !r.allowedMime[contentType] {
		return errorResponse(ctx, http.StatusUnsupportedMediaType, "unsupported file type. Allowed: jpeg, png")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return errorResponse(ctx, http.StatusUnsupportedMediaType, "unsupported file extension. Allowed: .jpg, .jpeg, .png")
	}

	fileReader, err := file.Open()
	if err != nil {
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
	}
	defer fileReader.Close()

	img, err := r.img.UploadDirect(ctx.UserContext(), middleware.OwnerID(ctx), file.Filename, contentType, fileReader, file.Size)
	if err != nil {
		if errors.Is(err, errs.ErrPayloadTooLarge) {
			return errorResponse(ctx, http.StatusRequestEntityTooLarge, "file size exceeds limit")
		}
		r.logger.Error(err, "restapi - v1 - uploadImage")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusCreated).JSON(r.img.Present(ctx.UserContext(), img))
}

// listImages returns the caller's images, newest first, 20 per page.
func (r *V1) listImages(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)

	result, err := r.img.ListImages(ctx.UserContext(), middleware.OwnerID(ctx), page)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listImages")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(result)
}

func (r *V1) getImage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	img, err := r.img.GetImage(ctx.UserContext(), middleware.OwnerID(ctx), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		case errors.Is(err, errs.ErrForbidden):
			return errorResponse(ctx, http.StatusForbidden, "Forbidden")
		}
		r.logger.Error(err, "restapi - v1 - getImage")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(r.img.Present(ctx.UserContext(), img))
}

func (r *V1) deleteImage(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	err = r.img.DeleteImage(ctx.UserContext(), middleware.OwnerID(ctx), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRecordNotFound):
			return errorResponse(ctx, http.StatusNotFound, "image not found")
		case errors.Is(err, errs.ErrForbidden):
			return errorResponse(ctx, http.StatusForbidden, "Forbidden")
		}
		r.logger.Error(err, "restapi - v1 - deleteImage")

		return internalError(ctx)
	}

	return ctx.Status(http.StatusOK).JSON(response.Message{Message: "Image deleted successfully"})
}
