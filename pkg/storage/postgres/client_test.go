package postgres_test

import (
	"context"
	"testing"
	"time"

	"depthwatch/config"
	"depthwatch/pkg/storage/postgres"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestClient backs the client with an in-memory sqlite database so the
// gorm queries run without a postgres server.
func newTestClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	raw, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get raw DB: %v", err)
	}
	raw.SetMaxOpenConns(1)

	client := &postgres.PostgresClient{DB: db}
	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("auto migration failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid port=5432 user=fail password=fail dbname=fail sslmode=disable connect_timeout=1"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

// go test -v --run ^TestClientHealth$
func TestClientHealth(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}
}

// go test -v --run ^TestCreateDatabaseUnreachable$
func TestCreateDatabaseUnreachable(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "postgres",
		Password: "postgres",
		DBName:   "depthwatch_test",
		SSLMode:  "disable",
	}

	if err := postgres.CreateDatabase(cfg, "dev"); err == nil {
		t.Fatal("expected error for unreachable server, got nil")
	}
}
