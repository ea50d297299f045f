package api

import (
	"context"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/booking"
	bookingHttp "github.com/hogwarts/facility-booking/internal/booking/http"
	"github.com/hogwarts/facility-booking/internal/facility"
	facilityHttp "github.com/hogwarts/facility-booking/internal/facility/http"
	"github.com/hogwarts/facility-booking/internal/pkg/ratelimit"
	"github.com/hogwarts/facility-booking/internal/user"
	userHttp "github.com/hogwarts/facility-booking/internal/user/http"
)

// Config holds everything the router needs to wire handlers.
type Config struct {
	IsProduction bool
	Origins      []string

	UserService     user.Service
	FacilityService facility.Service
	BookingService  booking.Service
	JWTManager      *auth.JWTManager

	// BookLimiter throttles POST /api/book per user. Nil disables it.
	BookLimiter *ratelimit.Limiter
	// DBCheck backs GET /health/db.
	DBCheck func(ctx context.Context) error
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (request id, logging, recovery, CORS, auth) and registers module routes.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - RequestID: tags every request and response with X-Request-ID.
	// - RequestLogger: structured access log through slog.
	// - Recovery: logs panics and answers 500.
	r.Use(RequestID(), RequestLogger(), Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && len(cfg.Origins) > 0 {
		corsConfig.AllowOrigins = cfg.Origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader, "Retry-After"}
	r.Use(cors.New(corsConfig))

	registerHealthRoutes(r, cfg.DBCheck)

	// authMiddleware: validates the bearer token.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// adminMiddleware: further requires a staff or admin account.
	adminMiddleware := RequireAdmin(cfg.UserService)
	bookLimiter := ratelimit.Middleware(cfg.BookLimiter, func(c *gin.Context) string {
		return "book:" + strconv.FormatInt(auth.GetUserID(c), 10)
	})

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	facilityHandler := facilityHttp.NewHandler(cfg.FacilityService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.FacilityService, cfg.UserService)

	apiGroup := r.Group("/api")
	{
		userHttp.RegisterRoutes(apiGroup, userHandler, authMiddleware)
		facilityHttp.RegisterRoutes(apiGroup, facilityHandler, authMiddleware, adminMiddleware)
		bookingHttp.RegisterRoutes(apiGroup, bookingHandler, authMiddleware, adminMiddleware, bookLimiter)
	}

	return r
}
