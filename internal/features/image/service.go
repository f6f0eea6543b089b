package image

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrImageNotFound  = errors.New("image not found")
	ErrNotUploader    = errors.New("only the uploader can delete an image")
	ErrImageTooLarge  = errors.New("image too large (max 10MB)")
	ErrNotAnImageType = errors.New("unsupported image type")
)

const maxImageSize = 10 << 20

var allowedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

type ImageService interface {
	ValidateUpload(size int64, mimeType string) error
	SaveImage(ctx context.Context, image *Image) error
	GetImage(ctx context.Context, id primitive.ObjectID) (*Image, error)
	MyImages(ctx context.Context, userID primitive.ObjectID) ([]*Image, error)
	DeleteImage(ctx context.Context, id, userID primitive.ObjectID) error
}

type ImageServiceImpl struct {
	ImageRepo ImageRepository
}

func NewImageService(imageRepo ImageRepository) ImageService {
	return &ImageServiceImpl{ImageRepo: imageRepo}
}

func (s *ImageServiceImpl) ValidateUpload(size int64, mimeType string) error {
	if size > maxImageSize {
		return ErrImageTooLarge
	}
	if !allowedMimeTypes[mimeType] {
		return ErrNotAnImageType
	}
	return nil
}

func (s *ImageServiceImpl) SaveImage(ctx context.Context, image *Image) error {
	return s.ImageRepo.Save(ctx, image)
}

func (s *ImageServiceImpl) GetImage(ctx context.Context, id primitive.ObjectID) (*Image, error) {
	image, err := s.ImageRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, ErrImageNotFound
	}
	return image, nil
}

func (s *ImageServiceImpl) MyImages(ctx context.Context, userID primitive.ObjectID) ([]*Image, error) {
	return s.ImageRepo.ListByUploader(ctx, userID)
}

func (s *ImageServiceImpl) DeleteImage(ctx context.Context, id, userID primitive.ObjectID) error {
	image, err := s.ImageRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if image == nil {
		return ErrImageNotFound
	}
	if image.UploadedBy != userID {
		return ErrNotUploader
	}

	if err := os.Remove(image.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image from disk: %w", err)
	}
	return s.ImageRepo.Delete(ctx, id)
}
