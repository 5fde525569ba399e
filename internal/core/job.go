package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/prodimport/internal/logging"
	"github.com/JonMunkholm/prodimport/internal/schema"
)

// ContextCheckInterval is how often, in rows, to check for context cancellation.
var ContextCheckInterval = 100

// Importer loads a product CSV into the store. Each run provisions the
// table, then writes every row in a single transaction: either all rows of
// the file are committed or none are.
type Importer struct {
	store    Store
	progress ProgressCallback
}

// Option configures an Importer.
type Option func(*Importer)

// WithProgress registers a callback for phase transitions.
func WithProgress(cb ProgressCallback) Option {
	return func(im *Importer) {
		im.progress = cb
	}
}

// NewImporter creates an Importer writing to store.
func NewImporter(store Store, opts ...Option) *Importer {
	im := &Importer{store: store}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile provisions the table, then opens path and imports it. A
// missing or unreadable file aborts the run after provisioning.
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	ctx, r := im.begin(ctx, filepath.Base(path))
	if err := im.ensure(ctx, r); err != nil {
		return r.abort(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return r.abort(wrap("open file", 0, err))
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		r.progress.BytesTotal = info.Size()
	}

	return im.load(ctx, r, f)
}

// Run imports the CSV read from src. size is the source length in bytes,
// or 0 if unknown; it is only used for progress reporting.
//
// The returned result is never nil. On failure its Phase is PhaseAborted,
// Inserted is 0 and the error is a *Error classifying the cause.
func (im *Importer) Run(ctx context.Context, fileName string, src io.Reader, size int64) (*ImportResult, error) {
	ctx, r := im.begin(ctx, fileName)
	r.progress.BytesTotal = size
	if err := im.ensure(ctx, r); err != nil {
		return r.abort(err)
	}
	return im.load(ctx, r, src)
}

// begin assigns the run id and enters PhaseStart.
func (im *Importer) begin(ctx context.Context, fileName string) (context.Context, *run) {
	r := &run{
		progress: Progress{
			RunID:    uuid.NewString(),
			FileName: fileName,
		},
		cb:    im.progress,
		start: time.Now(),
	}
	ctx = logging.WithRunID(ctx, r.progress.RunID)
	r.log = logging.FromContext(ctx).With("file", fileName)

	r.log.Info("import started")
	r.set(PhaseStart)
	return ctx, r
}

func (im *Importer) ensure(ctx context.Context, r *run) error {
	if err := im.store.EnsureSchema(ctx); err != nil {
		return wrap("ensure schema", 0, err)
	}
	r.set(PhaseTableEnsured)
	return nil
}

// load reads src inside one transaction and commits every row or none.
func (im *Importer) load(ctx context.Context, r *run, src io.Reader) (*ImportResult, error) {
	r.log.Debug("reading source", "bytes", r.progress.BytesTotal)
	stream := WrapForStreaming(src, r.progress.BytesTotal)
	var records []*schema.Product

	err := im.store.InTransaction(ctx, func(tx RecordWriter) error {
		r.set(PhaseTransactionOpen)

		rows := NewRowReader(stream)
		for rows.Next() {
			row := rows.Row()

			if len(records)%ContextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return wrap("read rows", row.Line, err)
				}
			}

			rec, err := ProductFromRow(row)
			if err != nil {
				return wrap("convert row", row.Line, err)
			}
			records = append(records, rec)

			r.progress.Rows = len(records)
			r.progress.BytesRead = stream.BytesRead()
			r.set(PhaseRowProcessing)
		}
		if err := rows.Err(); err != nil {
			return wrap("parse csv", 0, err)
		}

		if len(records) == 0 {
			return nil
		}
		if err := tx.Insert(ctx, records); err != nil {
			return wrap("insert rows", 0, err)
		}
		return nil
	})
	if err != nil {
		return r.abort(wrap("commit", 0, err))
	}

	result := r.result(PhaseCommitted, len(records))
	if len(records) > 0 {
		result.FirstID = records[0].ID
		result.LastID = records[len(records)-1].ID
	}
	r.progress.BytesRead = stream.BytesRead()
	r.set(PhaseCommitted)

	r.log.Info("import committed",
		"rows", result.Inserted,
		"first_id", result.FirstID,
		"last_id", result.LastID,
		"duration", result.Duration,
	)
	return result, nil
}

// run tracks the state of one Importer.Run call.
type run struct {
	progress Progress
	cb       ProgressCallback
	log      *slog.Logger
	start    time.Time
}

func (r *run) set(phase Phase) {
	if r.progress.Phase != phase {
		r.log.Debug("import phase", "phase", string(phase), "rows", r.progress.Rows)
	}
	r.progress.Phase = phase
	if r.cb != nil {
		r.cb(r.progress)
	}
}

func (r *run) abort(err error) (*ImportResult, error) {
	r.progress.Error = err.Error()
	r.set(PhaseAborted)

	msg := MapError(err)
	r.log.Error("import aborted",
		"error", err,
		"kind", KindOf(err).String(),
		"code", msg.Code,
		"rows_read", r.progress.Rows,
	)

	result := r.result(PhaseAborted, 0)
	result.Error = err.Error()
	return result, err
}

func (r *run) result(phase Phase, inserted int) *ImportResult {
	return &ImportResult{
		RunID:     r.progress.RunID,
		FileName:  r.progress.FileName,
		Phase:     phase,
		TotalRows: r.progress.Rows,
		Inserted:  inserted,
		Duration:  time.Since(r.start),
	}
}

// Summary renders a one-line description of the result.
func (res *ImportResult) Summary() string {
	if res.Phase != PhaseCommitted {
		return fmt.Sprintf("%s: aborted after %d rows, nothing written", res.FileName, res.TotalRows)
	}
	if res.Inserted == 0 {
		return fmt.Sprintf("%s: no rows to import", res.FileName)
	}
	return fmt.Sprintf("%s: imported %d rows (ids %d-%d) in %s",
		res.FileName, res.Inserted, res.FirstID, res.LastID, res.Duration.Round(time.Millisecond))
}
