package testhelpers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rikster-r/booking-calendar/backend/shared/go-repositories"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/require"
)

// TestHelper bundles what an integration test needs to talk to a running
// booking-service and its database.
type TestHelper struct {
	T          *testing.T
	Ctx        context.Context
	BaseURL    string
	DB         *pgxpool.Pool
	PrivateKey *rsa.PrivateKey

	// Set per CI run so parallel runners get their own DB role.
	UniqueRunnerID  string
	UniqueRunNumber string

	UserRepo    repositories.UserRepository
	RoomRepo    repositories.RoomRepository
	BookingRepo repositories.BookingRepository
	CommentRepo repositories.CommentRepository
	TokenRepo   repositories.TokenRepository
}

// NewTestHelper loads the environment (an optional .env.test file first),
// connects to the database and builds the repositories. It's designed to be
// called once from a TestMain function.
func NewTestHelper(t *testing.T, uniqueRunID, uniqueRunNum string) *TestHelper {
	_ = godotenv.Load(".env.test")

	baseURL := os.Getenv("APP_URL_FROM_ANYWHERE")
	require.NotEmpty(t, baseURL, "APP_URL_FROM_ANYWHERE env var is missing")

	dbURL := os.Getenv("DATABASE_URL")
	require.NotEmpty(t, dbURL, "DATABASE_URL env var is missing")

	privateKeyB64 := os.Getenv("RSA_PRIVATE_KEY_BASE64")
	require.NotEmpty(t, privateKeyB64, "RSA_PRIVATE_KEY_BASE64 env var is missing")
	privateKeyPEM, err := base64.StdEncoding.DecodeString(privateKeyB64)
	require.NoError(t, err)
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	require.NoError(t, err, "failed to parse RSA_PRIVATE_KEY_BASE64")

	effectiveURL := dbURL
	if uniqueRunID != "" && uniqueRunNum != "" {
		effectiveURL, err = utils.WithIsolatedRole(dbURL, uniqueRunID, uniqueRunNum)
		require.NoError(t, err)
	}

	ctx := context.Background()
	dbPool, err := pgxpool.Connect(ctx, effectiveURL)
	require.NoError(t, err)
	t.Cleanup(dbPool.Close)

	return &TestHelper{
		T:               t,
		Ctx:             ctx,
		BaseURL:         baseURL,
		DB:              dbPool,
		PrivateKey:      privateKey,
		UniqueRunnerID:  uniqueRunID,
		UniqueRunNumber: uniqueRunNum,
		UserRepo:        repositories.NewUserRepository(dbPool),
		RoomRepo:        repositories.NewRoomRepository(dbPool),
		BookingRepo:     repositories.NewBookingRepository(dbPool),
		CommentRepo:     repositories.NewCommentRepository(dbPool),
		TokenRepo:       repositories.NewTokenRepository(dbPool),
	}
}
