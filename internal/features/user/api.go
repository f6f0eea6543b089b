package user

import (
	"go-forum/internal/config"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
	validator  middleware.SessionValidator
}

func NewUserApi(controller *UserController, config *config.Config, validator middleware.SessionValidator) *UserApi {
	return &UserApi{
		controller: controller,
		config:     config,
		validator:  validator,
	}
}

// Setup registers auth and user routes
func (h *UserApi) Setup(app *fiber.App) {
	auth := app.Group("/api/auth")
	auth.Post("/register", h.controller.Register)
	auth.Post("/login", h.controller.Login)
	auth.Post("/validate", h.controller.Validate)

	users := app.Group("/api/users", middleware.AuthMiddleware(h.validator, h.config.SkipAuth))
	users.Get("/", h.controller.ListUsers)
	users.Get("/me", h.controller.Me)
}
