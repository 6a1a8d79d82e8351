package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kanemolly/campus-resource-hub/internal/auth"
	"github.com/kanemolly/campus-resource-hub/internal/booking"
	bookingHttp "github.com/kanemolly/campus-resource-hub/internal/booking/http"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
	resHttp "github.com/kanemolly/campus-resource-hub/internal/resource/http"
	"github.com/kanemolly/campus-resource-hub/internal/user"
)

// Config carries the services the router exposes.
type Config struct {
	IsProduction  bool
	ProdOrigins   string
	Logger        *zap.Logger
	BusinessHours bookingHttp.BusinessHours

	UserService    user.Service
	ResService     resource.Service
	BookingService booking.Service
	JWTManager     *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestLogger(logger), Recovery(logger))

	// Configure CORS (Cross-Origin Resource Sharing).
	if origins := allowedOrigins(cfg.IsProduction, cfg.ProdOrigins); len(origins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = origins
		config.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
		config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		r.Use(cors.New(config))
	} else {
		logger.Warn("no CORS origins configured, cross-origin requests will be rejected by browsers")
	}

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	authHandler := NewAuthHandler(cfg.UserService, cfg.JWTManager)
	resHandler := resHttp.NewHandler(cfg.ResService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.BusinessHours)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.GET("/me", authMiddleware, authHandler.Me)

		resHttp.RegisterRoutes(v1, resHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
	}

	return r
}

func allowedOrigins(isProduction bool, prodOrigins string) []string {
	if !isProduction {
		return []string{"http://localhost:3000", "http://localhost:8081"}
	}
	var origins []string
	for _, o := range strings.Split(prodOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
