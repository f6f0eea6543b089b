package role

import (
	"errors"

	"go-forum/internal/common/models"
	"go-forum/internal/features/group"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoleController struct {
	Service RoleService
}

func NewRoleController(service RoleService) *RoleController {
	return &RoleController{Service: service}
}

type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type RoleResponse struct {
	ID          primitive.ObjectID `json:"id"`
	GroupID     primitive.ObjectID `json:"group_id"`
	Name        string             `json:"name"`
	IsBase      bool               `json:"is_base"`
	Permissions []string           `json:"permissions"`
}

func toResponse(r Role) RoleResponse {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, p.String())
	}
	return RoleResponse{
		ID:          r.ID,
		GroupID:     r.GroupID,
		Name:        r.Name,
		IsBase:      r.IsBase,
		Permissions: perms,
	}
}

func parsePermissions(names []string) ([]models.Permission, bool) {
	perms := make([]models.Permission, 0, len(names))
	for _, name := range names {
		p, ok := models.ParsePermission(name)
		if !ok {
			return nil, false
		}
		perms = append(perms, p)
	}
	return perms, true
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrRoleNotFound), errors.Is(err, group.ErrGroupNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrBaseRoleImmutable):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, group.ErrPermissionDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}

func (ctrl *RoleController) CreateRole(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var req CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Role name is required"})
	}

	perms, ok := parsePermissions(req.Permissions)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown permission"})
	}

	r, err := ctrl.Service.CreateRole(c.UserContext(), userID, groupID, req.Name, perms)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(*r))
}

func (ctrl *RoleController) ListRoles(c *fiber.Ctx) error {
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	roles, err := ctrl.Service.ListRoles(c.UserContext(), groupID)
	if err != nil {
		return fail(c, err)
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toResponse(r))
	}
	return c.JSON(out)
}

func (ctrl *RoleController) UpdatePermissions(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	roleID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}

	var req UpdatePermissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	perms, ok := parsePermissions(req.Permissions)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown permission"})
	}

	if err := ctrl.Service.UpdateRolePermissions(c.UserContext(), userID, roleID, perms); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated successfully"})
}

func (ctrl *RoleController) DeleteRole(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	roleID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}

	if err := ctrl.Service.DeleteRole(c.UserContext(), userID, roleID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role deleted successfully"})
}
