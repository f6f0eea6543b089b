package group

import (
	"go-forum/internal/config"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	controller *GroupController
	config     *config.Config
	validator  middleware.SessionValidator
}

func NewGroupApi(controller *GroupController, config *config.Config, validator middleware.SessionValidator) *GroupApi {
	return &GroupApi{
		controller: controller,
		config:     config,
		validator:  validator,
	}
}

func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/groups", middleware.AuthMiddleware(h.validator, h.config.SkipAuth))

	groups.Post("/", h.controller.CreateGroup)
	groups.Get("/", h.controller.ListGroups)
	groups.Get("/:id", h.controller.GetGroup)
	groups.Put("/:id", h.controller.UpdateGroup)
	groups.Delete("/:id", h.controller.DeleteGroup)

	// Membership lifecycle
	groups.Post("/:id/members", h.controller.Join)
	groups.Delete("/:id/members", h.controller.Leave)
	groups.Delete("/:id/members/:userId", h.controller.RemoveMember)
	groups.Get("/:id/members", h.controller.ListMembers)

	// Role assignment
	groups.Post("/:id/promote", h.controller.Promote)
	groups.Post("/:id/demote", h.controller.Demote)
}
