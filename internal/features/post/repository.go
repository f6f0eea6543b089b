package post

import (
	"context"
	"errors"
	"time"

	"go-forum/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Post, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Post, error)
	DeleteCascade(ctx context.Context, id primitive.ObjectID) error
	SetVote(ctx context.Context, postID, userID primitive.ObjectID, value int) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type PostRepositoryImpl struct {
	mongodb  *database.MongodbDB
	posts    *mongo.Collection
	comments *mongo.Collection
}

func NewPostRepository(mongodb *database.MongodbDB) PostRepository {
	return &PostRepositoryImpl{
		mongodb:  mongodb,
		posts:    mongodb.DB.Collection("posts"),
		comments: mongodb.DB.Collection("comments"),
	}
}

func (r *PostRepositoryImpl) Create(ctx context.Context, post *Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	if post.Votes == nil {
		post.Votes = map[string]int{}
	}
	_, err := r.posts.InsertOne(ctx, post)
	return err
}

func (r *PostRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Post, error) {
	var post Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepositoryImpl) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.posts.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeleteCascade removes a post and every comment attached to it.
func (r *PostRepositoryImpl) DeleteCascade(ctx context.Context, id primitive.ObjectID) error {
	return r.mongodb.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.comments.DeleteMany(sc, bson.M{"post_id": id}); err != nil {
			return nil, err
		}
		if _, err := r.posts.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// SetVote records the user's vote on a post. A value of 0 retracts the vote,
// any other value replaces whatever the user voted before. Returns false when
// the post does not exist.
func (r *PostRepositoryImpl) SetVote(ctx context.Context, postID, userID primitive.ObjectID, value int) (bool, error) {
	field := "votes." + userID.Hex()

	var update bson.M
	if value == 0 {
		update = bson.M{"$unset": bson.M{field: ""}}
	} else {
		update = bson.M{"$set": bson.M{field: value}}
	}

	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *PostRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return err
	}
	_, err = r.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}},
	})
	return err
}

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Comment, error)
	ListByPost(ctx context.Context, postID primitive.ObjectID) ([]Comment, error)
	CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CommentRepositoryImpl struct {
	collection *mongo.Collection
}

func NewCommentRepository(mongodb *database.MongodbDB) CommentRepository {
	return &CommentRepositoryImpl{
		collection: mongodb.DB.Collection("comments"),
	}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *CommentRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Comment, error) {
	var comment Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepositoryImpl) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepositoryImpl) CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"post_id": postID})
}

func (r *CommentRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
