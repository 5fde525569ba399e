// Package testinfra provides a PostgreSQL server for integration tests.
//
// The server comes from PRODIMPORT_TEST_DATABASE_URL when set, otherwise a
// container is started once per test binary with testcontainers. Each test
// gets its own freshly created database on that server.
package testinfra

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"

	// EnvDatabaseURL points the tests at an existing server instead of a container.
	EnvDatabaseURL = "PRODIMPORT_TEST_DATABASE_URL"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartSimplePostgres starts a throwaway PostgreSQL container.
func StartSimplePostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

var (
	serverOnce sync.Once
	serverConn string
	serverErr  error
)

func getOrStartServer() (string, error) {
	serverOnce.Do(func() {
		ctr, err := StartSimplePostgres(context.Background())
		if err != nil {
			serverErr = err
			return
		}
		serverConn = ctr.ConnString
	})
	return serverConn, serverErr
}

// ServerConnectionString returns the connection string of the test server.
// Priority: PRODIMPORT_TEST_DATABASE_URL > auto-started container > skip test.
func ServerConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv(EnvDatabaseURL); connString != "" {
		return connString
	}

	connString, err := getOrStartServer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", EnvDatabaseURL, err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase creates an empty database for the calling test and
// returns its connection string. The database is dropped when the test ends.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	serverURL := ServerConnectionString(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgx.Connect(ctx, serverURL)
	if err != nil {
		t.Fatalf("connect to test server: %v", err)
	}
	defer admin.Close(ctx)

	name := "prodimport_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		t.Fatalf("create test database: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		conn, err := pgx.Connect(ctx, serverURL)
		if err != nil {
			t.Logf("drop test database %s: %v", name, err)
			return
		}
		defer conn.Close(ctx)
		if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)"); err != nil {
			t.Logf("drop test database %s: %v", name, err)
		}
	})

	return withDatabase(serverURL, name)
}

// withDatabase points a connection string at another database. URL and
// keyword/value forms are both accepted.
func withDatabase(connString, name string) string {
	if u, err := url.Parse(connString); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		u.Path = "/" + name
		return u.String()
	}
	return connString + " dbname=" + name
}
