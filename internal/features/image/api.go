package image

import (
	"go-forum/internal/config"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ImageApi struct {
	controller *ImageController
	config     *config.Config
	validator  middleware.SessionValidator
}

func NewImageApi(controller *ImageController, config *config.Config, validator middleware.SessionValidator) *ImageApi {
	return &ImageApi{
		controller: controller,
		config:     config,
		validator:  validator,
	}
}

func (h *ImageApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.validator, h.config.SkipAuth)

	images := app.Group("/api/images", auth)
	images.Post("/", h.controller.UploadImage)
	images.Get("/", h.controller.MyImages)
	images.Get("/:id/download", h.controller.DownloadImage)
	images.Delete("/:id", h.controller.DeleteImage)

	app.Static(h.config.FSURL, h.config.FSPath)
}
