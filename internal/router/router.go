package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/handler"
	"github.com/sibaso/qbank-api/internal/middleware"
	"github.com/sibaso/qbank-api/internal/service"
	"github.com/sibaso/qbank-api/pkg/config"
	"github.com/sibaso/qbank-api/pkg/logger"
	corsmiddleware "github.com/sibaso/qbank-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sibaso/qbank-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	CourseTags   *handler.TagHandler
	MaterialTags *handler.TagHandler
	Questions    *handler.QuestionHandler
	Sets         *handler.QuestionSetHandler
	Files        *handler.FileHandler
	History      *handler.QuestionHistoryHandler
	Packages     *handler.QuestionPackageHandler
	Dropdown     *handler.DropdownHandler
	Metrics      *handler.MetricsHandler
}

// New assembles the gin engine with the full middleware chain and route table.
func New(cfg *config.Config, logr *zap.Logger, auth *service.AuthService, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authenticated := middleware.Authenticate(auth)
	admin := middleware.RequireAdmin()
	contributor := middleware.RequireContributor()

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signin", h.Auth.Login)
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.GET("/me", authenticated, h.Auth.Me)
	}

	users := api.Group("/users", authenticated, admin)
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	registerTagRoutes(api.Group("/course-tags", authenticated), h.CourseTags, admin)
	registerTagRoutes(api.Group("/material-tags", authenticated), h.MaterialTags, admin)

	questions := api.Group("/questions", authenticated, contributor)
	{
		questions.GET("", h.Questions.List)
		questions.POST("", h.Questions.Create)
		questions.GET("/:id", h.Questions.Get)
		questions.PUT("/:id", h.Questions.Update)
		questions.DELETE("/:id", h.Questions.Delete)
		questions.POST("/:id/course-tags", h.Questions.AddCourseTags)
		questions.DELETE("/:id/course-tags/:tagId", h.Questions.RemoveCourseTag)
		questions.POST("/:id/material-tags", h.Questions.AddMaterialTags)
		questions.DELETE("/:id/material-tags/:tagId", h.Questions.RemoveMaterialTag)
	}

	sets := api.Group("/question-sets", authenticated, contributor)
	{
		sets.GET("", h.Sets.List)
		sets.POST("", h.Sets.Create)
		sets.GET("/:id", h.Sets.Get)
		sets.PUT("/:id", h.Sets.Update)
		sets.DELETE("/:id", h.Sets.Delete)
		sets.POST("/:id/files", h.Files.Upload)
		sets.GET("/:id/files", h.Files.List)
	}

	files := api.Group("/files")
	{
		// Token-authenticated download, no JWT required.
		files.GET("/download", h.Files.Download)
		files.GET("/:id/download-link", authenticated, contributor, h.Files.DownloadLink)
		files.DELETE("/:id", authenticated, contributor, h.Files.Delete)
	}

	history := api.Group("/question-histories", authenticated)
	{
		history.GET("", h.History.List)
		history.POST("", h.History.Record)
	}

	packages := api.Group("/question-packages", authenticated, contributor)
	{
		packages.GET("", h.Packages.List)
		packages.POST("", h.Packages.Create)
		packages.GET("/:id", h.Packages.Get)
		packages.PUT("/:id", h.Packages.Update)
		packages.DELETE("/:id", h.Packages.Delete)
		packages.POST("/:id/items", h.Packages.AddItem)
		packages.DELETE("/:id/items/:itemId", h.Packages.RemoveItem)
		packages.GET("/:id/export/pdf", h.Packages.ExportPDF)
		packages.GET("/:id/export/csv", h.Packages.ExportCSV)
	}

	api.GET("/dropdown", authenticated, h.Dropdown.Options)
	api.GET("/metrics/snapshot", authenticated, admin, h.Metrics.Snapshot)

	return r
}

// registerTagRoutes mounts the shared tag route shape: reads for every
// authenticated user, writes for admins only.
func registerTagRoutes(g *gin.RouterGroup, h *handler.TagHandler, admin gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", admin, h.Create)
	g.POST("/batch", admin, h.CreateBatch)
	g.PUT("/:id", admin, h.Update)
	g.DELETE("/:id", admin, h.Delete)
}
