package cli

import (
	"errors"

	"github.com/JonMunkholm/prodimport/internal/admin"
	"github.com/JonMunkholm/prodimport/internal/core"
)

// Exit codes of the prodimport binary.
const (
	ExitSuccess         = 0  // Import committed
	ExitGeneralError    = 1  // Unclassified failure
	ExitUsageError      = 2  // Invalid arguments or flags
	ExitPanic           = 3  // Internal panic
	ExitConfigError     = 10 // Missing or invalid configuration
	ExitConnectionError = 11 // Database unreachable or connection lost
	ExitDataError       = 12 // Input file must be fixed
)

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("usage error")

// ExitCodeForError maps an error returned by Execute to a process exit code.
// Returns ExitSuccess (0) for nil errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage), errors.Is(err, admin.ErrNotConfirmed):
		return ExitUsageError
	}

	switch core.KindOf(err) {
	case core.KindConfig:
		return ExitConfigError
	case core.KindConnection:
		return ExitConnectionError
	case core.KindData:
		return ExitDataError
	default:
		return ExitGeneralError
	}
}
