package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/hogwarts/facility-booking/internal/app"
	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/db"
	"github.com/hogwarts/facility-booking/internal/facility"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
	"github.com/hogwarts/facility-booking/internal/pkg/request"
	"github.com/hogwarts/facility-booking/internal/user"
)

var (
	testRouter *gin.Engine
	testPool   *pgxpool.Pool
	jwtManager *auth.JWTManager
	facilities facility.Service
)

func TestMain(m *testing.M) {
	// Attempt to load .env from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		log.Printf("No .env file found or failed to load: %v", err)
	}

	// These tests need a real PostgreSQL; skip the package without one.
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		log.Printf("TEST_DB_DSN is not set, skipping integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	testPool, err = db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	if err := db.Migrate(ctx, testPool); err != nil {
		log.Fatalf("Unable to migrate database: %v\n", err)
	}

	testSecret := os.Getenv("TEST_JWT_SECRET")
	if testSecret == "" {
		testSecret = "integration-secret"
	}

	gin.SetMode(gin.TestMode)
	if err := request.RegisterValidators(); err != nil {
		log.Fatalf("Unable to register validators: %v", err)
	}

	// Initialize App Container using shared logic
	appContainer := app.NewContainer(app.Config{
		DBPool:     testPool,
		JWTSecret:  testSecret,
		JWTTTL:     30 * time.Minute,
		BcryptCost: 4, // Lower cost for testing purposes
		Logger:     logger.Nop(),
	})

	testRouter = appContainer.Router
	jwtManager = appContainer.JWTManager
	facilities = appContainer.FacilityService

	if err := facilities.EnsureDefaults(ctx); err != nil {
		log.Fatalf("Unable to seed facilities: %v", err)
	}

	exitCode := m.Run()

	testPool.Close()
	os.Exit(exitCode)
}

func clearTables() {
	ctx := context.Background()
	queries := []string{
		"TRUNCATE TABLE public.bookings RESTART IDENTITY",
		"TRUNCATE TABLE public.users RESTART IDENTITY CASCADE",
	}
	for _, q := range queries {
		if _, err := testPool.Exec(ctx, q); err != nil {
			log.Printf("Failed to clean table: %v", err)
		}
	}
}

func executeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

func createTestUser(t *testing.T, hogwartsID, password string, role user.Role) *user.User {
	hasher := auth.NewBcryptPasswordHasherWithCost(4)
	hash, err := hasher.Hash(password)
	require.NoError(t, err, "Failed to hash password")

	u := &user.User{
		HogwartsID:   hogwartsID,
		PasswordHash: hash,
		Role:         role,
	}

	repo := user.NewPgxRepository(testPool)
	require.NoError(t, repo.Create(context.Background(), u), "Failed to create test user in DB")
	return u
}

func generateToken(u *user.User) string {
	token, _ := jwtManager.GenerateAccessToken(u.ID, u.HogwartsID, string(u.Role))
	return token
}
