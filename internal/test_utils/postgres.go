package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "gatherly"
	dbUser     = "test_gatherly"
	dbPassword = "test_gatherly"
)

func preparePostgresContainer() (container *postgres.PostgresContainer, err error) {
	ctx := context.Background()

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %v", err)
	}

	// testcontainers panics instead of failing when no Docker host is reachable
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	return postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
}

// TestWithDB starts a Postgres container, applies all migrations and snapshots the clean state.
// The returned function opens a new pool against it. An error means Docker is not usable and
// database tests should be skipped.
func TestWithDB() (*postgres.PostgresContainer, func() *pgxpool.Pool, error) {
	ctx := context.Background()

	container, err := preparePostgresContainer()
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return container, nil, err
	}

	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   dbUser,
		Pass:   dbPassword,
		Name:   dbName,
		Schema: "gatherly",
	}

	if err := database.Migrate(cfg); err != nil {
		return container, nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err := container.Snapshot(ctx, postgres.WithSnapshotName("postgres-test-snapshot")); err != nil {
		return container, nil, fmt.Errorf("failed to snapshot postgres container: %w", err)
	}

	return container, func() *pgxpool.Pool {
		db, err := database.Open(cfg)
		if err != nil {
			log.Fatalf("Failed to open database connection: %v", err)
			os.Exit(1)
		}
		return db
	}, nil
}

// findProjectRoot walks up from the working directory until it finds go.mod or .git.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if fileExists(filepath.Join(dir, ".git")) || fileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DB holds a migrated Postgres container shared by the tests of one package.
type DB struct {
	container *postgres.PostgresContainer
	open      func() *pgxpool.Pool
	err       error
}

// StartDB is meant to be called from TestMain. A failure is remembered and reported by Open.
func StartDB() *DB {
	container, open, err := TestWithDB()
	if err != nil {
		log.Warnf("Database tests disabled: %v", err)
	}
	return &DB{container: container, open: open, err: err}
}

// Open returns a pool on the clean database. The pool is closed and the snapshot restored after the test.
// The test is skipped when no container could be started.
func (d *DB) Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if d.err != nil {
		t.Skipf("database not available: %v", d.err)
	}
	db := d.open()
	t.Cleanup(func() {
		db.Close()
		if err := d.container.Restore(context.Background()); err != nil {
			t.Errorf("failed to restore database snapshot: %v", err)
		}
	})
	return db
}

func (d *DB) Terminate() {
	if d.container == nil {
		return
	}
	if err := testcontainers.TerminateContainer(d.container); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
}
