// # Error Codes Reference
//
// Every failure reported to the operator carries a code that can be quoted
// when asking for help. Codes are grouped by category:
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid configuration: a required setting is missing or malformed
//	         Action: Check DATABASE_URL and the other settings in the environment or .env
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: a record with this key already exists
//	        SQLSTATE 23505
//
//	DB004 - Connection refused: unable to connect to the database
//	        Action: Check that the database is running and reachable
//	        SQLSTATE class 08, dial errors
//
//	DB005 - Connection lost: the database connection was interrupted
//	        Action: Run the import again; nothing was written
//	        SQLSTATE class 57, "connection reset"
//
//	DB006 - Timeout: the operation did not finish in time
//	        Action: Raise IMPORT_TIMEOUT or DB_CONNECT_TIMEOUT
//
//	DB007 - Authentication failed
//	        Action: Check the user name and password in DATABASE_URL
//	        SQLSTATE class 28
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid year: the year column is not an integer
//	VAL003 - Missing column: a required column is missing from the CSV header
//	VAL004 - Value too long: a text value exceeds its column limit (SQLSTATE 22001)
//	VAL005 - Missing value: the database rejected a NULL value (SQLSTATE 23502)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found: the input file cannot be opened
//	FILE002 - Invalid CSV: the file could not be parsed as CSV
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: an unexpected error occurred
//	         Action: Check the log output for the technical error
//
// # Matching
//
// Typed errors are inspected first (ValidationError, PostgreSQL SQLSTATE,
// missing file, CSV parse errors). Anything else falls through to
// case-insensitive substring patterns, where the first match wins.

package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/prodimport/internal/config"
)

// UserMessage provides operator-facing error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgConfig = UserMessage{
		Message: "Invalid configuration",
		Action:  "Check DATABASE_URL and the other settings in the environment or .env",
		Code:    "CFG001",
	}
	msgDuplicate = UserMessage{
		Message: "A record with this key already exists",
		Action:  "Remove the duplicate rows from the file",
		Code:    "DB001",
	}
	msgConnRefused = UserMessage{
		Message: "Unable to connect to database",
		Action:  "Check that the database is running and reachable",
		Code:    "DB004",
	}
	msgConnLost = UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Run the import again; nothing was written",
		Code:    "DB005",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Raise IMPORT_TIMEOUT or DB_CONNECT_TIMEOUT",
		Code:    "DB006",
	}
	msgAuth = UserMessage{
		Message: "Database authentication failed",
		Action:  "Check the user name and password in DATABASE_URL",
		Code:    "DB007",
	}
	msgInvalidYear = UserMessage{
		Message: "Invalid year",
		Action:  "Use a whole number in the year column",
		Code:    "VAL001",
	}
	msgMissingColumn = UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Check that the header has name, manufacturer and year",
		Code:    "VAL003",
	}
	msgTooLong = UserMessage{
		Message: "Value is too long for its column",
		Action:  "Shorten the value or fix the column it was read from",
		Code:    "VAL004",
	}
	msgNotNull = UserMessage{
		Message: "A required value is missing",
		Action:  "Fill in name, manufacturer and year on every row",
		Code:    "VAL005",
	}
	msgFileNotFound = UserMessage{
		Message: "Input file cannot be opened",
		Action:  "Check IMPORT_FILE and the file permissions",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "FILE002",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
	kind    Kind
}

// errorPatterns is the fallback for errors that carry no type to inspect.
// Order matters: more specific patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicate, kind: KindData},
	{pattern: "password authentication failed", msg: msgAuth, kind: KindConnection},
	{pattern: "connection refused", msg: msgConnRefused, kind: KindConnection},
	{pattern: "connection reset", msg: msgConnLost, kind: KindConnection},
	{pattern: "unexpected eof", msg: msgConnLost, kind: KindConnection},
	{pattern: "timeout", msg: msgTimeout, kind: KindConnection},
	{pattern: "context deadline exceeded", msg: msgTimeout, kind: KindConnection},
	{pattern: "value too long", msg: msgTooLong, kind: KindData},
	{pattern: "missing required column", msg: msgMissingColumn, kind: KindData},
	{pattern: "invalid integer", msg: msgInvalidYear, kind: KindData},
}

// matchPattern returns the first errorPatterns entry found in err's text.
func matchPattern(err error) (errorPattern, bool) {
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep, true
		}
	}
	return errorPattern{}, false
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log output for the technical error",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
//
//	msg := MapError(err)
//	// msg.Code == "VAL001" for a non-integer year
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, config.ErrInvalid) {
		return msgConfig
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Field == ColumnYear && ve.Value != "":
			return msgInvalidYear
		case strings.HasPrefix(ve.Message, "missing required column"):
			return msgMissingColumn
		case strings.HasPrefix(ve.Message, "value too long"):
			return msgTooLong
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := messageForSQLState(pgErr.Code); ok {
			return msg
		}
	}

	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return msgInvalidCSV
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return msgFileNotFound
	}
	if pgconn.Timeout(err) {
		return msgTimeout
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return msgConnRefused
	}

	if ep, ok := matchPattern(err); ok {
		return ep.msg
	}

	return defaultMessage
}

func messageForSQLState(code string) (UserMessage, bool) {
	switch code {
	case "23505":
		return msgDuplicate, true
	case "23502":
		return msgNotNull, true
	case "22001":
		return msgTooLong, true
	case "22P02", "22003":
		return msgInvalidYear, true
	}
	if len(code) < 2 {
		return UserMessage{}, false
	}
	switch code[:2] {
	case "08":
		return msgConnRefused, true
	case "57":
		return msgConnLost, true
	case "28":
		return msgAuth, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator-facing message.
// The original error is preserved for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
