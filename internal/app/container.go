package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kanemolly/campus-resource-hub/internal/api"
	"github.com/kanemolly/campus-resource-hub/internal/auth"
	"github.com/kanemolly/campus-resource-hub/internal/booking"
	bookingHttp "github.com/kanemolly/campus-resource-hub/internal/booking/http"
	"github.com/kanemolly/campus-resource-hub/internal/notify"
	"github.com/kanemolly/campus-resource-hub/internal/resource"
	"github.com/kanemolly/campus-resource-hub/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	BusinessHoursStart int
	BusinessHoursEnd   int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
	Sweeper        *booking.Sweeper
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, logger.Named("user"))

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Booking Module
	bookingLogger := logger.Named("booking")
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, resService, notify.NewLogNotifier(logger), bookingLogger)
	sweeper := booking.NewSweeper(bookingRepo, bookingService, bookingLogger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         logger.Named("http"),
		BusinessHours:  bookingHttp.BusinessHours{Start: cfg.BusinessHoursStart, End: cfg.BusinessHoursEnd},
		UserService:    userService,
		ResService:     resService,
		BookingService: bookingService,
		JWTManager:     jwtManager,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
		Sweeper:        sweeper,
	}
}
