package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/prodimport/internal/schema"
)

// Store is the persistence side of an import run.
// Satisfied by *store.Store.
type Store interface {
	// EnsureSchema creates the product table if it does not exist.
	EnsureSchema(ctx context.Context) error
	// InTransaction runs fn inside one transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	InTransaction(ctx context.Context, fn func(tx RecordWriter) error) error
}

// RecordWriter writes records inside an open transaction. On success the
// store-assigned IDs are set on the records.
type RecordWriter interface {
	Insert(ctx context.Context, records []*schema.Product) error
}

// Phase indicates the current stage of an import run.
type Phase string

const (
	PhaseStart           Phase = "start"
	PhaseTableEnsured    Phase = "table_ensured"
	PhaseTransactionOpen Phase = "transaction_open"
	PhaseRowProcessing   Phase = "row_processing"
	PhaseCommitted       Phase = "committed"
	PhaseAborted         Phase = "aborted"
)

// Terminal reports whether no further transition follows p.
func (p Phase) Terminal() bool {
	return p == PhaseCommitted || p == PhaseAborted
}

// Progress represents the current state of an import run.
type Progress struct {
	RunID    string
	FileName string
	Phase    Phase
	Rows     int // rows staged so far
	// Byte-based progress; BytesTotal is 0 when the source size is unknown.
	BytesRead  int64
	BytesTotal int64
	Error      string // Non-empty if Phase is PhaseAborted
}

// Percent returns the byte progress as a percentage (0-100).
func (p Progress) Percent() int {
	if p.BytesTotal > 0 {
		return int((p.BytesRead * 100) / p.BytesTotal)
	}
	return 0
}

// ProgressCallback is called on every phase transition and periodically
// while rows are staged.
type ProgressCallback func(Progress)

// ImportResult contains the final result of an import run.
type ImportResult struct {
	RunID     string
	FileName  string
	Phase     Phase // PhaseCommitted or PhaseAborted
	TotalRows int   // data rows read from the file
	Inserted  int   // rows committed, 0 when aborted
	FirstID   int64 // IDs assigned to the first and last committed rows
	LastID    int64
	Duration  time.Duration
	Error     string // Non-empty if the run aborted
}
