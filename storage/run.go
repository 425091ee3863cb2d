// Package storage provides the conversion run ledger.
//
// A ledger entry describes one pipeline run: which repository, how many
// batches fell back, how long it took and whether it failed. Entries never
// hold file content or access tokens.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	// RunSucceeded means the run returned a result, possibly with fallbacks.
	RunSucceeded RunStatus = "succeeded"
	// RunFailed means the run returned an error and no files.
	RunFailed RunStatus = "failed"
)

// String returns the string representation of the status.
func (s RunStatus) String() string {
	return string(s)
}

// ParseRunStatus parses a string into a RunStatus.
func ParseRunStatus(s string) (RunStatus, error) {
	switch strings.ToLower(s) {
	case "succeeded":
		return RunSucceeded, nil
	case "failed":
		return RunFailed, nil
	default:
		return "", fmt.Errorf("unknown run status: %s", s)
	}
}

// RunRecord is one ledger entry.
type RunRecord struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	Branch   string `json:"branch"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Status RunStatus `json:"status"`
	// Error is the failure message for failed runs (empty otherwise).
	Error string `json:"error,omitempty"`

	Batches         int `json:"batches"`
	FallbackBatches int `json:"fallback_batches"`
	FilesIn         int `json:"files_in"`
	FilesOut        int `json:"files_out"`

	// StartedAt is the Unix timestamp when the run started.
	StartedAt  int64 `json:"started_at"`
	DurationMs int64 `json:"duration_ms"`
}

// NewRunRecord creates a record for a run starting now.
func NewRunRecord(owner, repo, branch string) RunRecord {
	return RunRecord{
		ID:        uuid.New().String(),
		Owner:     owner,
		Repo:      repo,
		Branch:    branch,
		StartedAt: time.Now().Unix(),
	}
}

// WithBackend sets the provider and model names.
func (r RunRecord) WithBackend(provider, model string) RunRecord {
	r.Provider = provider
	r.Model = model
	return r
}

// Succeeded marks the record as a successful run with the given counts.
func (r RunRecord) Succeeded(batches, fallbackBatches, filesIn, filesOut int, d time.Duration) RunRecord {
	r.Status = RunSucceeded
	r.Error = ""
	r.Batches = batches
	r.FallbackBatches = fallbackBatches
	r.FilesIn = filesIn
	r.FilesOut = filesOut
	r.DurationMs = d.Milliseconds()
	return r
}

// Failed marks the record as a failed run.
func (r RunRecord) Failed(err error, d time.Duration) RunRecord {
	r.Status = RunFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.DurationMs = d.Milliseconds()
	return r
}

// RunStore persists ledger entries. Implementations are safe for concurrent use.
type RunStore interface {
	// Record stores a finished run. Recording an existing ID replaces it.
	Record(ctx context.Context, run RunRecord) error

	// List returns up to limit runs, most recent first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]RunRecord, error)

	// Get returns one run by ID, or nil, nil if not found.
	Get(ctx context.Context, id string) (*RunRecord, error)

	// Ping checks the store is usable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
