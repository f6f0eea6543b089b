package image

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Image struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OriginalFilename string             `json:"original_filename" bson:"original_filename"`
	URL              string             `json:"url" bson:"url"`
	Path             string             `json:"path" bson:"path"`
	Size             int64              `json:"size" bson:"size"`
	MimeType         string             `json:"mime_type" bson:"mime_type"`
	UploadedBy       primitive.ObjectID `json:"uploaded_by" bson:"uploaded_by"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}
