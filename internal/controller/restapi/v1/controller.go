package v1

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"snapvault/config"
	"snapvault/internal/controller/restapi/v1/response"
	"snapvault/internal/usecase"
	"snapvault/pkg/logger"
)

type V1 struct {
	img    usecase.ImageUseCase
	cfg    config.Upload
	logger logger.Interface

	allowedMime map[string]bool
}

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Message: msg})
}

func internalError(ctx *fiber.Ctx) error {
	return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
}
