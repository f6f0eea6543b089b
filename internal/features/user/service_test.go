package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-forum/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *User) error {
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeGroupLister struct {
	groups map[primitive.ObjectID][]primitive.ObjectID
}

func (f *fakeGroupLister) UserGroups(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.groups[userID], nil
}

func newTestService() (*UserServiceImpl, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return &UserServiceImpl{
		UserRepo: repo,
		Groups:   &fakeGroupLister{groups: map[primitive.ObjectID][]primitive.ObjectID{}},
		Codec:    utils.NewJWTCodec("test-secret"),
	}, repo
}

func registerTestUser(t *testing.T, svc *UserServiceImpl) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123",
		time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return u
}

func registerTestUserNamed(t *testing.T, svc *UserServiceImpl, username, email string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), username, email, "password123", time.Time{})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return u
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	svc, _ := newTestService()
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), "alice", "other@example.com", "password123", time.Time{})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists for duplicate username, got %v", err)
	}

	_, err = svc.Register(context.Background(), "other", "alice@example.com", "password123", time.Time{})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestLoginOutcomes(t *testing.T) {
	svc, _ := newTestService()
	registerTestUser(t, svc)

	result, err := svc.Login(context.Background(), "nobody@example.com", "password123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.UserExists || result.Success {
		t.Errorf("Expected unknown account outcome, got %+v", result)
	}

	result, err = svc.Login(context.Background(), "alice@example.com", "wrong-password")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.UserExists || result.Success || result.Token != "" {
		t.Errorf("Expected wrong password outcome, got %+v", result)
	}

	result, err = svc.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Success || result.Token == "" {
		t.Errorf("Expected successful login with token, got %+v", result)
	}
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	u := registerTestUser(t, svc)

	result, err := svc.Login(context.Background(), "alice@example.com", "password123")
	if err != nil || !result.Success {
		t.Fatalf("Login failed: %v %+v", err, result)
	}

	got, err := svc.ValidateToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("Expected user %s, got %s", u.ID.Hex(), got.ID.Hex())
	}
}

func TestValidateTokenNormalizesDecodeFailures(t *testing.T) {
	svc, _ := newTestService()
	registerTestUser(t, svc)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong structure", "aaa.bbb.ccc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), tc.token)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _ := newTestService()
	u := registerTestUser(t, svc)

	other := utils.NewJWTCodec("different-secret")
	token, err := other.Sign(u.ID, true)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	_, err = svc.ValidateToken(context.Background(), token)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestValidateTokenRejectsUnauthenticatedClaims(t *testing.T) {
	svc, _ := newTestService()
	u := registerTestUser(t, svc)

	// A token minted without a successful login never resolves.
	token, err := svc.Codec.Sign(u.ID, false)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	_, err = svc.ValidateToken(context.Background(), token)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated, got %v", err)
	}
}

func TestValidateTokenMissingUser(t *testing.T) {
	svc, repo := newTestService()
	u := registerTestUser(t, svc)

	token, err := svc.Codec.Sign(u.ID, true)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	delete(repo.users, u.ID)

	_, err = svc.ValidateToken(context.Background(), token)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileListsJoinedGroups(t *testing.T) {
	svc, _ := newTestService()
	u := registerTestUser(t, svc)

	groupID := primitive.NewObjectID()
	svc.Groups.(*fakeGroupLister).groups[u.ID] = []primitive.ObjectID{groupID}

	p, err := svc.Profile(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(p.Groups) != 1 || p.Groups[0] != groupID {
		t.Errorf("Expected joined group %s, got %v", groupID.Hex(), p.Groups)
	}

	stranger := registerTestUserNamed(t, svc, "bob", "bob@example.com")
	p, err = svc.Profile(context.Background(), stranger.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Groups == nil || len(p.Groups) != 0 {
		t.Errorf("Expected empty group list, got %v", p.Groups)
	}
}

func TestCheckTokenStatelessOutcome(t *testing.T) {
	svc, _ := newTestService()
	u := registerTestUser(t, svc)

	if _, ok := svc.CheckToken("garbage"); ok {
		t.Error("Expected garbage token to be rejected")
	}

	token, err := svc.Codec.Sign(u.ID, true)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	id, ok := svc.CheckToken(token)
	if !ok || id != u.ID.Hex() {
		t.Errorf("Expected valid token to resolve to %s, got %q ok=%v", u.ID.Hex(), id, ok)
	}
}
