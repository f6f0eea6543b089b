package main

import (
	"context"
	"time"

	"go-forum/internal/common/models"
	"go-forum/internal/config"
	"go-forum/internal/database"
	"go-forum/internal/features/authz"
	"go-forum/internal/features/group"
	"go-forum/internal/features/post"
	"go-forum/internal/features/role"
	"go-forum/internal/features/user"
	"go-forum/internal/logger"
	"go-forum/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Seed populates a development database with a couple of users, a demo
// group with a moderator role, and a first post.
func Seed(
	lc fx.Lifecycle,
	userService user.UserService,
	groupService group.GroupService,
	roleService role.RoleService,
	postService post.PostService,
	userRepo user.UserRepository,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				logger.Info("Starting database seeding...")

				birthDate := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

				alice, err := userService.Register(ctx, "alice", "alice@example.com", "password123", birthDate)
				if err != nil {
					existing, ferr := userRepo.FindByEmail(ctx, "alice@example.com")
					if ferr != nil || existing == nil {
						logger.Error("Failed to seed user alice", zap.Error(err))
						return
					}
					logger.Info("User alice exists, skipping")
					alice = existing
				}

				bob, err := userService.Register(ctx, "bob", "bob@example.com", "password123", birthDate)
				if err != nil {
					existing, ferr := userRepo.FindByEmail(ctx, "bob@example.com")
					if ferr != nil || existing == nil {
						logger.Error("Failed to seed user bob", zap.Error(err))
						return
					}
					logger.Info("User bob exists, skipping")
					bob = existing
				}

				g, err := groupService.CreateGroup(ctx, alice.ID, "robotics", "Robots and the people who build them")
				if err != nil {
					logger.Info("Group robotics exists or failed, skipping the rest", zap.Error(err))
					return
				}

				moderator, err := roleService.CreateRole(ctx, alice.ID, g.ID, "moderator",
					[]models.Permission{models.PermissionDelete, models.PermissionBan})
				if err != nil {
					logger.Error("Failed to seed moderator role", zap.Error(err))
					return
				}

				if err := groupService.Join(ctx, bob.ID, g.ID); err != nil {
					logger.Error("Failed to join bob to robotics", zap.Error(err))
					return
				}
				if err := groupService.Promote(ctx, alice.ID, g.ID, bob.ID, moderator.ID); err != nil {
					logger.Error("Failed to promote bob", zap.Error(err))
					return
				}

				if _, err := postService.CreatePost(ctx, alice.ID, g.ID, "Welcome to robotics",
					"Introduce yourself and show off your builds."); err != nil {
					logger.Error("Failed to seed post", zap.Error(err))
					return
				}

				logger.Info("Seeding complete",
					zap.String("group_id", g.ID.Hex()),
					zap.String("moderator_role_id", moderator.ID.Hex()))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,

			func(cfg *config.Config) *utils.JWTCodec {
				return utils.NewJWTCodec(cfg.JWTSecret)
			},

			user.NewUserRepository,
			group.NewGroupRepository,
			group.NewMembershipRepository,
			role.NewRoleRepository,
			post.NewPostRepository,
			post.NewCommentRepository,

			user.NewUserService,
			authz.NewEngine,
			group.NewGroupService,
			role.NewRoleService,
			post.NewPostService,

			func(r group.MembershipRepository) authz.MembershipStore { return r },
			func(r group.MembershipRepository) user.GroupLister { return r },
			func(r role.RoleRepository) authz.RoleStore { return r },
			func(r role.RoleRepository) group.RoleBootstrapper { return r },
			func(r user.UserRepository) group.UserFinder { return r },
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
