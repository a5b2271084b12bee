package api

import (
	"alcyxob/upload-service/internal/domain"
	"alcyxob/upload-service/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps bundles what SetupRoutes wires into handlers.
type Deps struct {
	AuthService   service.AuthService
	UserService   service.UserService
	AccessService service.AccessService
	Uploader      Uploader
	Files         FileAccess
	Logger        *zap.Logger

	// MaxRequestBytes caps upload bodies. Zero disables the cap.
	MaxRequestBytes int64

	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	fileHandler := NewFileHandler(deps.Uploader, deps.Files, deps.MaxRequestBytes, deps.Logger)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		authGroup.POST("/login", authHandler.Login)
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.AuthService))
	{
		protected.GET("/me", authHandler.Me)

		resources := protected.Group("")
		resources.Use(RequireFeature(deps.AccessService, domain.FeatureUserResource))

		users := resources.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
		}

		files := resources.Group("/files")
		{
			files.POST("/upload-files", fileHandler.UploadFiles)
			files.GET("/presigned_url", fileHandler.PresignedURL)
			files.GET("/download", fileHandler.Download)
		}
	}
}
