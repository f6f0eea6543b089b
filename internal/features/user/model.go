package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a forum account. Password holds the bcrypt hash and never
// leaves the server.
type User struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Username       string              `json:"username" bson:"username"`
	Email          string              `json:"email" bson:"email"`
	Password       string              `json:"-" bson:"password"`
	ProfilePicture *primitive.ObjectID `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	BirthDate      time.Time           `json:"birth_date" bson:"birth_date"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
}

// Profile is the /me view: the account plus the groups it belongs to.
type Profile struct {
	User   `bson:",inline"`
	Groups []primitive.ObjectID `json:"groups"`
}
