package post

import (
	"context"
	"errors"

	"go-forum/internal/common/models"
	"go-forum/internal/features/authz"
	"go-forum/internal/features/group"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrInvalidVote     = errors.New("vote must be -1, 0 or 1")
)

type PostService interface {
	CreatePost(ctx context.Context, authorID, groupID primitive.ObjectID, title, body string) (*Post, error)
	GroupFeed(ctx context.Context, groupID primitive.ObjectID) ([]FeedItem, error)
	GetPost(ctx context.Context, postID primitive.ObjectID) (*PostDetail, error)
	DeletePost(ctx context.Context, actorID, postID primitive.ObjectID) error
	AddComment(ctx context.Context, authorID, postID primitive.ObjectID, body string) (*Comment, error)
	DeleteComment(ctx context.Context, actorID, commentID primitive.ObjectID) error
	Vote(ctx context.Context, userID, postID primitive.ObjectID, value int) error
}

type PostServiceImpl struct {
	posts       PostRepository
	comments    CommentRepository
	groups      group.GroupRepository
	memberships group.MembershipRepository
	engine      authz.Engine
	log         *zap.Logger
}

func NewPostService(
	posts PostRepository,
	comments CommentRepository,
	groups group.GroupRepository,
	memberships group.MembershipRepository,
	engine authz.Engine,
	log *zap.Logger,
) PostService {
	return &PostServiceImpl{
		posts:       posts,
		comments:    comments,
		groups:      groups,
		memberships: memberships,
		engine:      engine,
		log:         log,
	}
}

func (s *PostServiceImpl) requireMember(ctx context.Context, userID, groupID primitive.ObjectID) error {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return group.ErrGroupNotFound
	}
	isMember, err := s.memberships.IsMember(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !isMember {
		return group.ErrNotMember
	}
	return nil
}

func (s *PostServiceImpl) CreatePost(ctx context.Context, authorID, groupID primitive.ObjectID, title, body string) (*Post, error) {
	if err := s.requireMember(ctx, authorID, groupID); err != nil {
		return nil, err
	}

	post := &Post{
		GroupID:  groupID,
		AuthorID: authorID,
		Title:    title,
		Body:     body,
		Votes:    map[string]int{},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.log.Info("post created",
		zap.String("post_id", post.ID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.String("user_id", authorID.Hex()))
	return post, nil
}

func (s *PostServiceImpl) GroupFeed(ctx context.Context, groupID primitive.ObjectID) ([]FeedItem, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, group.ErrGroupNotFound
	}

	posts, err := s.posts.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	feed := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		count, err := s.comments.CountByPost(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		feed = append(feed, FeedItem{Post: p, Score: p.Score(), CommentCount: count})
	}
	return feed, nil
}

func (s *PostServiceImpl) GetPost(ctx context.Context, postID primitive.ObjectID) (*PostDetail, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: *post, Comments: comments, Score: post.Score()}, nil
}

// canModerate reports whether the actor may delete content they did not
// author, which requires the delete permission in the post's group.
func (s *PostServiceImpl) canModerate(ctx context.Context, actorID, groupID primitive.ObjectID) (bool, error) {
	return s.engine.HasPermission(ctx, actorID, groupID, models.PermissionDelete)
}

func (s *PostServiceImpl) DeletePost(ctx context.Context, actorID, postID primitive.ObjectID) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if post.AuthorID != actorID {
		allowed, err := s.canModerate(ctx, actorID, post.GroupID)
		if err != nil {
			return err
		}
		if !allowed {
			return group.ErrPermissionDenied
		}
	}

	if err := s.posts.DeleteCascade(ctx, postID); err != nil {
		return err
	}

	s.log.Info("post deleted",
		zap.String("post_id", postID.Hex()),
		zap.String("user_id", actorID.Hex()))
	return nil
}

func (s *PostServiceImpl) AddComment(ctx context.Context, authorID, postID primitive.ObjectID, body string) (*Comment, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	isMember, err := s.memberships.IsMember(ctx, authorID, post.GroupID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, group.ErrNotMember
	}

	comment := &Comment{
		PostID:   postID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *PostServiceImpl) DeleteComment(ctx context.Context, actorID, commentID primitive.ObjectID) error {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrCommentNotFound
	}

	if comment.AuthorID != actorID {
		post, err := s.posts.FindByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post == nil {
			return ErrPostNotFound
		}
		allowed, err := s.canModerate(ctx, actorID, post.GroupID)
		if err != nil {
			return err
		}
		if !allowed {
			return group.ErrPermissionDenied
		}
	}

	return s.comments.Delete(ctx, commentID)
}

func (s *PostServiceImpl) Vote(ctx context.Context, userID, postID primitive.ObjectID, value int) error {
	if value < -1 || value > 1 {
		return ErrInvalidVote
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	isMember, err := s.memberships.IsMember(ctx, userID, post.GroupID)
	if err != nil {
		return err
	}
	if !isMember {
		return group.ErrNotMember
	}

	matched, err := s.posts.SetVote(ctx, postID, userID, value)
	if err != nil {
		return err
	}
	if !matched {
		return ErrPostNotFound
	}
	return nil
}
