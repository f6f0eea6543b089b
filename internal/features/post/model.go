package post

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GroupID   primitive.ObjectID `json:"group_id" bson:"group_id"`
	AuthorID  primitive.ObjectID `json:"author_id" bson:"author_id"`
	Title     string             `json:"title" bson:"title"`
	Body      string             `json:"body" bson:"body"`
	ImageID   primitive.ObjectID `json:"image_id,omitempty" bson:"image_id,omitempty"`
	Votes     map[string]int     `json:"votes" bson:"votes"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Score is the sum of all votes on the post.
func (p *Post) Score() int {
	total := 0
	for _, v := range p.Votes {
		total += v
	}
	return total
}

type Comment struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PostID    primitive.ObjectID `json:"post_id" bson:"post_id"`
	AuthorID  primitive.ObjectID `json:"author_id" bson:"author_id"`
	Body      string             `json:"body" bson:"body"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
	Score    int       `json:"score"`
}

type FeedItem struct {
	Post         Post  `json:"post" bson:",inline"`
	Score        int   `json:"score" bson:"-"`
	CommentCount int64 `json:"comment_count" bson:"-"`
}
