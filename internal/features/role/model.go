package role

import (
	"go-forum/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BaseRoleName is the display name of every group's base role.
const BaseRoleName = "member"

// Role is a named, group-scoped bundle of permissions. A role belongs
// to exactly one group and is never shared. IsBase marks the group's
// default role: assigned on join and on demotion, never deletable,
// permission set always empty.
type Role struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	GroupID     primitive.ObjectID  `json:"group_id" bson:"group_id"`
	Name        string              `json:"name" bson:"name"`
	IsBase      bool                `json:"is_base" bson:"is_base"`
	Permissions []models.Permission `json:"permissions" bson:"permissions"`
}
