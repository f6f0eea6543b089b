package image

import (
	"context"
	"errors"

	"go-forum/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ImageRepository interface {
	Save(ctx context.Context, image *Image) error
	Get(ctx context.Context, id primitive.ObjectID) (*Image, error)
	ListByUploader(ctx context.Context, userID primitive.ObjectID) ([]*Image, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ImageRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewImageRepository(mongodb *database.MongodbDB) ImageRepository {
	return &ImageRepositoryImpl{
		Collection: mongodb.DB.Collection("images"),
	}
}

func (r *ImageRepositoryImpl) Save(ctx context.Context, image *Image) error {
	if image.ID.IsZero() {
		image.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, image)
	return err
}

func (r *ImageRepositoryImpl) Get(ctx context.Context, id primitive.ObjectID) (*Image, error) {
	var image Image
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepositoryImpl) ListByUploader(ctx context.Context, userID primitive.ObjectID) ([]*Image, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"uploaded_by": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var images []*Image
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
