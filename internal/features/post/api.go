package post

import (
	"go-forum/internal/config"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PostApi struct {
	controller *PostController
	config     *config.Config
	validator  middleware.SessionValidator
}

func NewPostApi(controller *PostController, config *config.Config, validator middleware.SessionValidator) *PostApi {
	return &PostApi{
		controller: controller,
		config:     config,
		validator:  validator,
	}
}

func (h *PostApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.validator, h.config.SkipAuth)

	groups := app.Group("/api/groups", auth)
	groups.Post("/:id/posts", h.controller.CreatePost)
	groups.Get("/:id/posts", h.controller.GroupFeed)

	posts := app.Group("/api/posts", auth)
	posts.Get("/:id", h.controller.GetPost)
	posts.Delete("/:id", h.controller.DeletePost)
	posts.Post("/:id/comments", h.controller.AddComment)
	posts.Post("/:id/vote", h.controller.Vote)

	comments := app.Group("/api/comments", auth)
	comments.Delete("/:id", h.controller.DeleteComment)
}
