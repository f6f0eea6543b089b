package user

import (
	"context"
	"errors"
	"time"

	"go-forum/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrUnauthenticated covers every non-session: empty, malformed,
	// expired or unsigned tokens and tokens minted without a login.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUserNotFound means the token was valid but its subject no
	// longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists means the username or email is already registered.
	ErrUserExists = errors.New("username or email already taken")
)

// LoginResult mirrors the login response shape: unknown accounts and
// wrong passwords are normal outcomes, not errors.
type LoginResult struct {
	UserExists bool   `json:"user_exists"`
	Success    bool   `json:"success"`
	Token      string `json:"jwt,omitempty"`
}

// GroupLister is the slice of the membership store the profile view
// needs. Implemented by the group feature's membership repository.
type GroupLister interface {
	UserGroups(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string, birthDate time.Time) (*User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ValidateToken(ctx context.Context, token string) (*User, error)
	ValidateSession(ctx context.Context, token string) (primitive.ObjectID, error)
	CheckToken(token string) (string, bool)
	GetUser(ctx context.Context, id primitive.ObjectID) (*User, error)
	Profile(ctx context.Context, id primitive.ObjectID) (*Profile, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type UserServiceImpl struct {
	UserRepo UserRepository
	Groups   GroupLister
	Codec    *utils.JWTCodec
}

func NewUserService(userRepo UserRepository, groups GroupLister, codec *utils.JWTCodec) UserService {
	return &UserServiceImpl{
		UserRepo: userRepo,
		Groups:   groups,
		Codec:    codec,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, username, email, password string, birthDate time.Time) (*User, error) {
	taken, err := s.UserRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:  username,
		Email:     email,
		Password:  hash,
		BirthDate: birthDate,
	}

	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	result := &LoginResult{}

	u, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return result, nil
	}
	result.UserExists = true

	if !utils.CheckPassword(password, u.Password) {
		return result, nil
	}

	token, err := s.Codec.Sign(u.ID, true)
	if err != nil {
		return nil, err
	}

	result.Success = true
	result.Token = token
	return result, nil
}

// ValidateToken resolves a bearer token to a user. Decode failures of
// any kind collapse into ErrUnauthenticated; they must never reach a
// caller as a raw decode error.
func (s *UserServiceImpl) ValidateToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.Codec.Decode(token)
	if err != nil || !claims.Authenticated {
		return nil, ErrUnauthenticated
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	u, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *UserServiceImpl) ValidateSession(ctx context.Context, token string) (primitive.ObjectID, error) {
	u, err := s.ValidateToken(ctx, token)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return u.ID, nil
}

// CheckToken inspects a token without touching the store. Used by the
// validate endpoint, where a bad token is a 200 with authenticated=false.
func (s *UserServiceImpl) CheckToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims, err := s.Codec.Decode(token)
	if err != nil || !claims.Authenticated {
		return "", false
	}
	return claims.UserID, true
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id primitive.ObjectID) (*User, error) {
	u, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Profile decorates a user with the ids of the groups they belong to.
func (s *UserServiceImpl) Profile(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	groups, err := s.Groups.UserGroups(ctx, id)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []primitive.ObjectID{}
	}
	return &Profile{User: *u, Groups: groups}, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]User, error) {
	return s.UserRepo.List(ctx)
}
