package role

import (
	"go-forum/internal/config"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RoleApi struct {
	controller *RoleController
	config     *config.Config
	validator  middleware.SessionValidator
}

func NewRoleApi(controller *RoleController, config *config.Config, validator middleware.SessionValidator) *RoleApi {
	return &RoleApi{
		controller: controller,
		config:     config,
		validator:  validator,
	}
}

func (h *RoleApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.validator, h.config.SkipAuth)

	groups := app.Group("/api/groups", auth)
	groups.Post("/:id/roles", h.controller.CreateRole)
	groups.Get("/:id/roles", h.controller.ListRoles)

	roles := app.Group("/api/roles", auth)
	roles.Put("/:id/permissions", h.controller.UpdatePermissions)
	roles.Delete("/:id", h.controller.DeleteRole)
}
