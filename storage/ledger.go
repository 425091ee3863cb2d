package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/richinex/staxchange/convert"
	"github.com/richinex/staxchange/internal/log"
)

// Ledger records pipeline outcomes in a RunStore.
type Ledger struct {
	store    RunStore
	provider string
	model    string
	logger   log.Logger
}

// NewLedger creates a Ledger tagging every run with the backend in use.
func NewLedger(store RunStore, provider, model string, logger log.Logger) *Ledger {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Ledger{store: store, provider: provider, model: model, logger: logger}
}

// RecordRun stores one run. Store failures are logged, never returned.
func (l *Ledger) RecordRun(ctx context.Context, req convert.Request, s convert.Summary, runErr error) {
	run := RunRecord{
		ID:        uuid.New().String(),
		Owner:     req.Owner,
		Repo:      req.Repo,
		Branch:    req.Branch,
		StartedAt: s.StartedAt.Unix(),
	}.WithBackend(l.provider, l.model)

	if runErr != nil {
		run = run.Failed(runErr, s.Duration)
	} else {
		run = run.Succeeded(s.Batches, s.FallbackBatches, s.FilesIn, s.FilesOut, s.Duration)
	}

	if err := l.store.Record(ctx, run); err != nil {
		l.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
		return
	}
	l.logger.Debug("recorded run", "run_id", run.ID, "status", run.Status)
}

var _ convert.Recorder = (*Ledger)(nil)
