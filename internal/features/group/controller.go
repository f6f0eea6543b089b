package group

import (
	"errors"

	"go-forum/internal/features/authz"
	"go-forum/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GroupController struct {
	Service GroupService
}

func NewGroupController(service GroupService) *GroupController {
	return &GroupController{Service: service}
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateGroupRequest struct {
	Description string `json:"description"`
}

type PromoteRequest struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

type DemoteRequest struct {
	UserID string `json:"user_id"`
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNotMember):
		return fiber.StatusNotFound
	case errors.Is(err, ErrGroupNameTaken), errors.Is(err, ErrAlreadyMember):
		return fiber.StatusConflict
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrOwnerCannotLeave):
		return fiber.StatusForbidden
	case errors.Is(err, ErrInvalidGroupName),
		errors.Is(err, authz.ErrRoleNotInGroup),
		errors.Is(err, authz.ErrTargetNotMember):
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

func (ctrl *GroupController) CreateGroup(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	g, err := ctrl.Service.CreateGroup(c.UserContext(), userID, req.Name, req.Description)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(g)
}

func (ctrl *GroupController) ListGroups(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	items, err := ctrl.Service.ListGroups(c.UserContext(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

func (ctrl *GroupController) GetGroup(c *fiber.Ctx) error {
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	g, err := ctrl.Service.GetGroup(c.UserContext(), groupID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(g)
}

func (ctrl *GroupController) UpdateGroup(c *fiber.Ctx) error {
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var req UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.UpdateDescription(c.UserContext(), groupID, req.Description); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group updated successfully"})
}

func (ctrl *GroupController) DeleteGroup(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	if err := ctrl.Service.DeleteGroup(c.UserContext(), userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Group deleted successfully"})
}

// Join adds the caller to the group at the base role.
func (ctrl *GroupController) Join(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	if err := ctrl.Service.Join(c.UserContext(), userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Joined group"})
}

// Leave is the self-exit path.
func (ctrl *GroupController) Leave(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	if err := ctrl.Service.Leave(c.UserContext(), userID, groupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left group"})
}

// RemoveMember is the moderation removal; requires the Ban permission.
func (ctrl *GroupController) RemoveMember(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}
	targetID, err := primitive.ObjectIDFromHex(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := ctrl.Service.RemoveMember(c.UserContext(), userID, groupID, targetID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

func (ctrl *GroupController) ListMembers(c *fiber.Ctx) error {
	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	members, err := ctrl.Service.Members(c.UserContext(), groupID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(members)
}

func (ctrl *GroupController) Promote(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var req PromoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	roleID, err := primitive.ObjectIDFromHex(req.RoleID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role ID"})
	}

	if err := ctrl.Service.Promote(c.UserContext(), userID, groupID, targetID, roleID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member promoted"})
}

func (ctrl *GroupController) Demote(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	groupID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	var req DemoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	targetID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := ctrl.Service.Demote(c.UserContext(), userID, groupID, targetID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member demoted"})
}
