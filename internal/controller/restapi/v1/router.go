package v1

import (
	"github.com/gofiber/fiber/v2"

	"snapvault/config"
	"snapvault/internal/usecase"
	"snapvault/pkg/logger"
)

func NewImageRoutes(apiV1Group fiber.Router, img usecase.ImageUseCase, cfg config.Upload, l logger.Interface) {
	allowed := make(map[string]bool, len(cfg.AllowedMimeTypes))
	for _, m := range cfg.AllowedMimeTypes {
		allowed[m] = true
	}

	r := &V1{img: img, cfg: cfg, logger: l, allowedMime: allowed}

	{
		apiV1Group.Post("/images/upload-url", r.uploadURL)
		apiV1Group.Post("/images/confirm", r.confirmUpload)
		apiV1Group.Post("/images", r.uploadImage)
		apiV1Group.Get("/images", r.listImages)
		apiV1Group.Get("/images/:id", r.getImage)
		apiV1Group.Delete("/images/:id", r.deleteImage)
	}
}
