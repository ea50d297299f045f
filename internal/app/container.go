package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hogwarts/facility-booking/internal/api"
	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/booking"
	"github.com/hogwarts/facility-booking/internal/db"
	"github.com/hogwarts/facility-booking/internal/facility"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
	"github.com/hogwarts/facility-booking/internal/pkg/ratelimit"
	"github.com/hogwarts/facility-booking/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	Origins      []string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	Logger       *logger.Logger

	FacilityAliases map[string]string

	// Optional. Nil Redis disables rate limiting; nil Events drops booking events.
	Redis          redis.Scripter
	BookRateLimit  int
	BookRateWindow time.Duration
	Events         booking.EventPublisher
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router          *gin.Engine
	JWTManager      *auth.JWTManager
	UserService     user.Service
	FacilityService facility.Service
	BookingService  booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, log.With("module", "user"))

	// Facility Module
	facilityRepo := facility.NewPgxRepository(cfg.DBPool)
	facilityService := facility.NewService(facilityRepo, cfg.FacilityAliases, log.With("module", "facility"))

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, facilityService, userService, cfg.Events, log.With("module", "booking"))

	var limiter *ratelimit.Limiter
	if cfg.Redis != nil && cfg.BookRateLimit > 0 {
		limiter = ratelimit.New(cfg.Redis, ratelimit.Config{
			Prefix: "facility-booking:rl",
			Limit:  cfg.BookRateLimit,
			Window: cfg.BookRateWindow,
		})
	}

	pool := cfg.DBPool
	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		Origins:         cfg.Origins,
		UserService:     userService,
		FacilityService: facilityService,
		BookingService:  bookingService,
		JWTManager:      jwtManager,
		BookLimiter:     limiter,
		DBCheck: func(ctx context.Context) error {
			return db.Ping(ctx, pool)
		},
	})

	return &Container{
		Router:          router,
		JWTManager:      jwtManager,
		UserService:     userService,
		FacilityService: facilityService,
		BookingService:  bookingService,
	}
}
