package core

import (
	"context"
	"database/sql/driver"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/prodimport/internal/config"
)

// Kind classifies a failure by what the operator has to fix.
type Kind int

const (
	// KindInternal is anything not covered by the other kinds.
	KindInternal Kind = iota
	// KindConfig is a missing or invalid configuration value.
	KindConfig
	// KindConnection means the store could not be reached or the link dropped.
	KindConnection
	// KindData means the input file has to be corrected.
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindData:
		return "data"
	default:
		return "internal"
	}
}

// Error is a failure of one import run step.
type Error struct {
	Kind Kind
	Op   string // step that failed, e.g. "ensure schema"
	Line int    // source line, 0 if not tied to a row
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports a CSV value that cannot become a record field.
type ValidationError struct {
	Field   string // CSV column name
	Value   string // offending value, empty when the column is missing
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// wrap attaches op to err unless err already carries a step.
func wrap(op string, line int, err error) error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Line: line, Err: err}
}

// KindOf classifies err. A *Error in the chain decides; otherwise the chain
// is inspected for configuration, PostgreSQL, network and parse errors, and
// finally matched against the same text patterns as MapError.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var ie *Error
	if errors.As(err, &ie) && ie.Kind != KindInternal {
		return ie.Kind
	}

	if errors.Is(err, config.ErrInvalid) {
		return KindConfig
	}

	var (
		ve       *ValidationError
		parseErr *csv.ParseError
		pathErr  *fs.PathError
	)
	if errors.As(err, &ve) || errors.As(err, &parseErr) || errors.As(err, &pathErr) {
		return KindData
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return kindOfSQLState(pgErr.Code)
	}

	var (
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	if errors.As(err, &connectErr) || errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return KindConnection
	}

	// Untyped errors get the kind of the message they are reported with.
	if ep, ok := matchPattern(err); ok {
		return ep.kind
	}

	return KindInternal
}

// kindOfSQLState maps a SQLSTATE to a Kind by its class.
func kindOfSQLState(code string) Kind {
	if len(code) < 2 {
		return KindInternal
	}
	switch code[:2] {
	case "08", "57": // connection exception, operator intervention
		return KindConnection
	case "22", "23": // data exception, integrity constraint violation
		return KindData
	case "28": // invalid authorization
		return KindConnection
	default:
		return KindInternal
	}
}
