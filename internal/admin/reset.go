// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/prodimport/internal/logging"
)

// ResetTimeout is the maximum duration for database reset operations.
const ResetTimeout = 30 * time.Second

// ErrNotConfirmed is returned when a destructive operation was requested
// without explicit confirmation.
var ErrNotConfirmed = errors.New("refusing to drop tables without confirmation")

// TableDropper drops every table it manages and returns their names.
// Satisfied by *store.Store.
type TableDropper interface {
	DropAll(ctx context.Context) ([]string, error)
}

// ResetDbs handles database reset operations.
type ResetDbs struct {
	DB TableDropper
	// Confirmed must be set by the caller after the operator explicitly
	// asked for the reset.
	Confirmed bool
}

// DropAll drops all product tables. This is a destructive operation: every
// imported row is lost. It runs only when Confirmed is set.
func (r *ResetDbs) DropAll(ctx context.Context) ([]string, error) {
	if !r.Confirmed {
		return nil, ErrNotConfirmed
	}

	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	log := logging.FromContext(ctx)
	log.Warn("dropping all tables")

	dropped, err := r.DB.DropAll(ctx)
	if err != nil {
		log.Error("drop failed", "error", err)
		return nil, err
	}

	log.Warn("tables dropped", "tables", dropped)
	return dropped, nil
}
