package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/prodimport/internal/admin"
	"github.com/JonMunkholm/prodimport/internal/config"
	"github.com/JonMunkholm/prodimport/internal/core"
	"github.com/JonMunkholm/prodimport/internal/store"
	"github.com/JonMunkholm/prodimport/internal/testinfra"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = Execute(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearEnv blanks every variable the commands read.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATABASE_URL", "DB_URL", "IMPORT_FILE", "IMPORT_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"DB_MAX_CONNS", "DB_MIN_CONNS", "DB_INSERT_BATCH_SIZE",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", fmt.Errorf("%w: accepts 0 arg(s)", ErrUsage), ExitUsageError},
		{"not confirmed", admin.ErrNotConfirmed, ExitUsageError},
		{"config", fmt.Errorf("config load: %w", config.ErrInvalid), ExitConfigError},
		{"connection", &core.Error{Kind: core.KindConnection, Op: "ping database", Err: errors.New("refused")}, ExitConnectionError},
		{"pg connection class", &pgconn.PgError{Code: "08006"}, ExitConnectionError},
		{"data", &core.ValidationError{Field: "year", Message: "invalid integer"}, ExitDataError},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeForError(tt.err))
		})
	}
}

func TestRoot_RejectsArguments(t *testing.T) {
	clearEnv(t)
	_, stderr, err := run(t, "products.csv")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
	assert.Contains(t, stderr, "Error:")
}

func TestRoot_UnknownFlag(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, "--force")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
}

func TestRoot_MissingDatabaseURL(t *testing.T) {
	clearEnv(t)
	_, stderr, err := run(t)
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCodeForError(err))
	assert.Contains(t, stderr, "DATABASE_URL")
	assert.Contains(t, stderr, "Code: CFG001")
}

func TestRoot_UnreachableDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=2")

	_, _, err := run(t)
	require.Error(t, err)
	assert.Equal(t, ExitConnectionError, ExitCodeForError(err))
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "prodimport dev ("), stdout)
}

func TestDrop_RequiresYes(t *testing.T) {
	clearEnv(t)
	_, stderr, err := run(t, "drop")
	require.ErrorIs(t, err, admin.ErrNotConfirmed)
	assert.Equal(t, ExitUsageError, ExitCodeForError(err))
	assert.Contains(t, stderr, "--yes")
}

func TestCheck(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		clearEnv(t)
		path := writeCSV(t, "name,manufacturer,year,contry,cpu\nX1,Acme,1999,US,Z80\n")

		stdout, _, err := run(t, "check", path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "rows: 1 valid, 0 with errors")
	})

	t.Run("file from IMPORT_FILE", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("IMPORT_FILE", writeCSV(t, "name,manufacturer,year\nA,M,1\n"))

		stdout, _, err := run(t, "check")
		require.NoError(t, err)
		assert.Contains(t, stdout, "1 valid")
	})

	t.Run("bad rows", func(t *testing.T) {
		clearEnv(t)
		path := writeCSV(t, "name,manufacturer,year\nA,M,1990\nB,M,later\n")

		stdout, _, err := run(t, "check", path)
		require.Error(t, err)
		assert.Equal(t, ExitDataError, ExitCodeForError(err))
		assert.Contains(t, stdout, `line 3: year: invalid integer "later"`)
	})

	t.Run("json", func(t *testing.T) {
		clearEnv(t)
		path := writeCSV(t, "name,manufacturer,year\nA,M,1990\n")

		stdout, _, err := run(t, "check", "--json", path)
		require.NoError(t, err)

		var resp core.PreviewResponse
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, 1, resp.Summary.ValidRows)
		assert.Equal(t, []string{"contry", "cpu"}, resp.MissingColumns)
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, stderr, err := run(t, "check", filepath.Join(t.TempDir(), "none.csv"))
		require.Error(t, err)
		assert.Equal(t, ExitDataError, ExitCodeForError(err))
		assert.Contains(t, stderr, "FILE001")
	})
}

func TestImport_AgainstPostgres(t *testing.T) {
	url := testinfra.RequireDatabase(t)
	clearEnv(t)
	t.Setenv("DATABASE_URL", url)

	t.Setenv("IMPORT_FILE", writeCSV(t, "name,manufacturer,year,contry,cpu\n"+
		"TK85,NEC,1980,JP,uPD8080\n"+
		"MSX,Sony,1983,JP,Z80\n"+
		"CP-500,Prologica,1982,BR,Z80\n"))

	stdout, _, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "imported 3 rows (ids 1-3)")

	t.Setenv("IMPORT_FILE", writeCSV(t, "name,manufacturer,year\nOk,M,1990\nBad,M,x\n"))
	_, stderr, err := run(t)
	require.Error(t, err)
	assert.Equal(t, ExitDataError, ExitCodeForError(err))
	assert.Contains(t, stderr, "Code: VAL001")

	st, err := store.Open(context.Background(), config.DatabaseConfig{URL: url, MaxConns: 1})
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "failed run must not add rows")

	stdout, _, err = run(t, "drop", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dropped: produtos")
}
