package restapi

import (
	"github.com/gofiber/fiber/v2"

	"snapvault/config"
	"snapvault/internal/controller/restapi/middleware"
	v1 "snapvault/internal/controller/restapi/v1"
	"snapvault/internal/usecase"
	"snapvault/pkg/logger"
)

// NewRouter mounts the v1 API. Every image route requires bearer-token
// authentication; owner-matching on single resources happens in the
// use-case.
func NewRouter(app *fiber.App, cfg *config.Config, img usecase.ImageUseCase, l logger.Interface) {
	apiV1Group := app.Group("/v1", middleware.Auth(cfg.Auth.JWTSecret))
	{
		v1.NewImageRoutes(apiV1Group, img, cfg.Upload, l)
	}
}
