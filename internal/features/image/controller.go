package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-forum/internal/config"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ImageController struct {
	UploadDir    string
	ImageService ImageService
	Config       *config.Config
}

func NewImageController(imageService ImageService, cfg *config.Config) *ImageController {
	if _, err := os.Stat(cfg.FSPath); os.IsNotExist(err) {
		os.MkdirAll(cfg.FSPath, 0755)
	}
	return &ImageController{
		UploadDir:    cfg.FSPath,
		ImageService: imageService,
		Config:       cfg,
	}
}

func (ctrl *ImageController) UploadImage(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Error retrieving image"})
	}

	mimeType := file.Header.Get("Content-Type")
	if err := ctrl.ImageService.ValidateUpload(file.Size, mimeType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	originalName := filepath.Base(file.Filename)
	uniqueName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), originalName)
	uniqueName = strings.ReplaceAll(uniqueName, " ", "_")

	dstPath := filepath.Join(ctrl.UploadDir, uniqueName)
	if err := c.SaveFile(file, dstPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error saving image to disk"})
	}

	record := &Image{
		OriginalFilename: originalName,
		Path:             dstPath,
		URL:              ctrl.Config.FSURL + "/" + uniqueName,
		Size:             file.Size,
		MimeType:         mimeType,
		UploadedBy:       userID,
		CreatedAt:        time.Now(),
	}

	if err := ctrl.ImageService.SaveImage(c.UserContext(), record); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error saving image metadata"})
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (ctrl *ImageController) DownloadImage(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid image ID"})
	}

	image, err := ctrl.ImageService.GetImage(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Image not found"})
	}

	return c.Download(image.Path, image.OriginalFilename)
}

func (ctrl *ImageController) MyImages(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	images, err := ctrl.ImageService.MyImages(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error retrieving images"})
	}
	return c.JSON(images)
}

func (ctrl *ImageController) DeleteImage(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid image ID"})
	}

	if err := ctrl.ImageService.DeleteImage(c.UserContext(), id, userID); err != nil {
		switch {
		case errors.Is(err, ErrImageNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrNotUploader):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		}
	}

	return c.JSON(fiber.Map{"message": "Image deleted successfully"})
}
