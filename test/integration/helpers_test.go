package integration

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/internal/repositories/contactentity"
	"github.com/Ramsey-B/aster/internal/repositories/identifier"
	"github.com/Ramsey-B/aster/internal/repositories/mergerecord"
	appctx "github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/merging"
	"github.com/Ramsey-B/aster/pkg/processor"
	"github.com/Ramsey-B/aster/pkg/resolution"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	// Use environment variables or defaults for test DB
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "aster"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func getTestContext() context.Context {
	ctx := context.Background()
	ctx = appctx.SetRequestID(ctx, uuid.New().String())
	return appctx.SetActor(ctx, "integration-test")
}

// stack wires the full service graph against the test database.
type stack struct {
	db          database.DB
	entities    *contactentity.Repository
	identifiers *identifier.Repository
	records     *mergerecord.Repository
	matcher     *matching.Engine
	detector    *matching.Detector
	merger      *merging.Engine
	resolver    *resolution.Service
}

func newStack(t *testing.T) *stack {
	db := getTestDB(t)
	logger := getTestLogger()

	entities := contactentity.NewRepository(db, logger)
	identifiers := identifier.NewRepository(db, logger)
	records := mergerecord.NewRepository(db, logger)
	matcher := matching.NewEngine(matching.DefaultWeights())
	detector := matching.NewDetector(logger, matcher)
	merger := merging.NewEngine(logger, db, entities, identifiers, records, matcher)
	resolver := resolution.NewService(logger, db, entities, identifiers, matcher, 0.9)

	return &stack{
		db:          db,
		entities:    entities,
		identifiers: identifiers,
		records:     records,
		matcher:     matcher,
		detector:    detector,
		merger:      merger,
		resolver:    resolver,
	}
}

func (s *stack) autoMerge(threshold float64, maxMerges int) *processor.AutoMerge {
	return processor.NewAutoMerge(getTestLogger(), s.db, s.entities, s.detector, s.merger, threshold, maxMerges)
}

// uniqueSource returns a source system name no other test run will use, so
// tests can share a database without colliding.
func uniqueSource(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

// assertNotFound asserts that err is an HTTP 404 error
func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err), "expected 404, got: %d", httperror.GetStatusCode(err))
}
