package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-forum/internal/common/api"
	"go-forum/internal/config"
	"go-forum/internal/database"
	"go-forum/internal/features/authz"
	"go-forum/internal/features/group"
	"go-forum/internal/features/image"
	"go-forum/internal/features/post"
	"go-forum/internal/features/role"
	"go-forum/internal/features/user"
	"go-forum/internal/logger"
	"go-forum/internal/middleware"
	"go-forum/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	groupRepo group.GroupRepository,
	membershipRepo group.MembershipRepository,
	postRepo post.PostRepository,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := userRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure user indexes: %v", err)
				}
				if err := groupRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure group indexes: %v", err)
				}
				if err := membershipRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure membership indexes: %v", err)
				}
				if err := postRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure post indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			func(cfg *config.Config) *utils.JWTCodec {
				return utils.NewJWTCodec(cfg.JWTSecret)
			},

			// Initialize Repository
			user.NewUserRepository,
			group.NewGroupRepository,
			group.NewMembershipRepository,
			role.NewRoleRepository,
			post.NewPostRepository,
			post.NewCommentRepository,
			image.NewImageRepository,

			// Initialize Service
			user.NewUserService,
			authz.NewEngine,
			group.NewGroupService,
			role.NewRoleService,
			post.NewPostService,
			image.NewImageService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s user.UserService) middleware.SessionValidator { return s },
			func(r group.MembershipRepository) authz.MembershipStore { return r },
			func(r group.MembershipRepository) user.GroupLister { return r },
			func(r role.RoleRepository) authz.RoleStore { return r },
			func(r role.RoleRepository) group.RoleBootstrapper { return r },
			func(r user.UserRepository) group.UserFinder { return r },

			// Initialize Controller
			user.NewUserController,
			group.NewGroupController,
			role.NewRoleController,
			post.NewPostController,
			image.NewImageController,

			// Initialize API Routes
			AsRoute(user.NewUserApi),
			AsRoute(group.NewGroupApi),
			AsRoute(role.NewRoleApi),
			AsRoute(post.NewPostApi),
			AsRoute(image.NewImageApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			InitializeIndexes,
		),
	)

	app.Run()
}
