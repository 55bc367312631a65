package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/watchnest/internal/api"
	"github.com/dom/watchnest/internal/config"
	"github.com/dom/watchnest/internal/logging"
	"github.com/dom/watchnest/internal/media"
	"github.com/dom/watchnest/internal/repository"
	repoPostgres "github.com/dom/watchnest/internal/repository/postgres"
	"github.com/dom/watchnest/internal/service"
	"github.com/dom/watchnest/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL container and migrates the schema
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_watchnest"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(testDB.Cleanup)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	testDB.DB = db

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"comments",
		"subscriptions",
		"videos",
		"user_sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing. Media goes to a
// per-test temp dir.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Port = "0"
	cfg.Environment = "test"
	cfg.CORSOrigins = []string{"*"}
	cfg.AccessTokenSecret = "test-access-secret-for-testing-only"
	cfg.RefreshTokenSecret = "test-refresh-secret-for-testing-only"
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AuthRateLimitPerMinute = 1000
	cfg.Media.Backend = config.MediaBackendDisk
	cfg.Media.Dir = t.TempDir()
	return cfg
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig(t)
	log := logging.Discard()

	repos := repoPostgres.NewRepositories(testDB.DB)
	hub := websocket.NewHub(log)
	go hub.Run()

	server := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + server.Listener.Addr().String()
	cfg.Media.PublicBaseURL = baseURL

	uploader, err := media.NewDiskUploader(cfg.Media.Dir, baseURL+"/static", log)
	if err != nil {
		server.Close()
		t.Fatalf("failed to create uploader: %v", err)
	}

	services := service.NewServices(repos, cfg, uploader, hub, log)
	server.Config.Handler = api.NewRouter(services, hub, cfg, log, uploader.Dir())
	server.Start()

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
	}
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:]
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
