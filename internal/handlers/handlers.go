package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/cache"
	"learninghouse/console/internal/client"
	"learninghouse/console/internal/config"
	"learninghouse/console/internal/guard"
	"learninghouse/console/internal/middleware"
	"learninghouse/console/internal/models"
	"learninghouse/console/internal/session"
	"learninghouse/console/internal/tokenstore"
)

type JobQueue interface {
	Enqueue(ctx context.Context, jobType models.JobType, brain string, data models.SensorsData, requestedBy string) (models.Job, error)
}

type JobHistory interface {
	ListByBrain(ctx context.Context, brain string, limit int) ([]models.JobRun, error)
}

// Dependencies wires the console handlers. DB, Cache, Queue and History are
// optional and may be left nil.
type Dependencies struct {
	Sessions *session.Manager
	Store    *tokenstore.Store
	API      *client.Client
	Guard    *guard.Guard
	Modes    *cache.ModeCache
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Queue    JobQueue
	History  JobHistory
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	sessions *session.Manager
	store    *tokenstore.Store
	api      *client.Client
	guard    *guard.Guard
	modes    *cache.ModeCache
	db       *pgxpool.Pool
	cache    *redis.Client
	queue    JobQueue
	history  JobHistory
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	modes := deps.Modes
	if modes == nil {
		modes = cache.NewModeCache(nil, 0)
	}

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		sessions: deps.Sessions,
		store:    deps.Store,
		api:      deps.API,
		guard:    deps.Guard,
		modes:    modes,
		db:       deps.DB,
		cache:    deps.Cache,
		queue:    deps.Queue,
		history:  deps.History,
	}
}

// Roles exposes the session as a role source for request logging.
func (h HandlerSet) Roles() guard.RoleReader {
	return h.sessions
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/mode", h.Mode)
	router.GET("/versions", h.Versions)

	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/apikey", h.LoginAPIKey)
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
		auth.GET("/session/stream", h.SessionStream)

		admin := auth.Group("", middleware.RequireRole(h.guard, models.RoleAdmin))
		admin.PUT("/password", h.ChangePassword)
		admin.GET("/apikeys", h.ListAPIKeys)
		admin.POST("/apikeys", h.CreateAPIKey)
		admin.DELETE("/apikeys/:description", h.DeleteAPIKey)
	}

	configuration := router.Group("/configuration", middleware.RequireRole(h.guard, models.RoleAdmin))
	{
		configuration.GET("/sensors", h.ListSensors)
		configuration.POST("/sensors", h.CreateSensor)
		configuration.GET("/sensors/:name", h.GetSensor)
		configuration.PUT("/sensors/:name", h.UpdateSensor)
		configuration.DELETE("/sensors/:name", h.DeleteSensor)

		configuration.GET("/brains", h.ListBrainConfigurations)
		configuration.POST("/brains", h.CreateBrain)
		configuration.GET("/brains/:name", h.GetBrainConfiguration)
		configuration.PUT("/brains/:name", h.UpdateBrain)
		configuration.DELETE("/brains/:name", h.DeleteBrain)
	}

	brains := router.Group("/brains", middleware.RequireRole(h.guard, models.RoleUser))
	{
		brains.GET("", h.ListBrains)
		brains.GET("/:name", h.GetBrain)
		brains.POST("/:name/prediction", h.Predict)

		training := brains.Group("", middleware.RequireRole(h.guard, models.RoleTrainer))
		training.POST("/:name/training", h.Retrain)
		training.PUT("/:name/training", h.Train)
		training.POST("/:name/jobs", h.EnqueueJob)
		training.GET("/:name/jobs", h.ListJobs)
	}

	ui := router.Group("/ui")
	ui.GET("/sidenav", h.Sidenav)
	ui.PUT("/sidenav", h.SetSidenav)
}
