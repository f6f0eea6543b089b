package post

import (
	"errors"

	"go-forum/internal/features/group"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostController struct {
	Service PostService
}

func NewPostController(service PostService) *PostController {
	return &PostController{Service: service}
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type CreateCommentRequest struct {
	Body string `json:"body"`
}

type VoteRequest struct {
	Value int `json:"value"`
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrCommentNotFound),
		errors.Is(err, group.ErrGroupNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, group.ErrNotMember), errors.Is(err, group.ErrPermissionDenied):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidVote):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (ctrl *PostController) CreatePost(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Post title is required"})
	}

	post, err := ctrl.Service.CreatePost(c.UserContext(), userID, groupID, req.Title, req.Body)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (ctrl *PostController) GroupFeed(c *fiber.Ctx) error {
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	feed, err := ctrl.Service.GroupFeed(c.UserContext(), groupID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(feed)
}

func (ctrl *PostController) GetPost(c *fiber.Ctx) error {
	postID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID"})
	}

	detail, err := ctrl.Service.GetPost(c.UserContext(), postID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(detail)
}

func (ctrl *PostController) DeletePost(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	postID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID"})
	}

	if err := ctrl.Service.DeletePost(c.UserContext(), userID, postID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

func (ctrl *PostController) AddComment(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	postID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID"})
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Comment body is required"})
	}

	comment, err := ctrl.Service.AddComment(c.UserContext(), userID, postID, req.Body)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (ctrl *PostController) DeleteComment(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	commentID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment ID"})
	}

	if err := ctrl.Service.DeleteComment(c.UserContext(), userID, commentID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted successfully"})
}

func (ctrl *PostController) Vote(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	postID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post ID"})
	}

	var req VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.Vote(c.UserContext(), userID, postID, req.Value); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Vote recorded"})
}
