package convert

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richinex/staxchange/internal/log"
	"github.com/richinex/staxchange/llm"
	"github.com/richinex/staxchange/model"
)

// ErrMissingFields is returned for a request without token, owner, repo or branch.
var ErrMissingFields = errors.New("Missing required fields")

// Fetcher supplies the source files of one repository branch.
type Fetcher interface {
	FetchSourceFiles(ctx context.Context, token, owner, repo, branch string) ([]model.SourceFile, error)
}

// Converter rewrites one batch.
type Converter interface {
	ConvertBatch(ctx context.Context, batch model.Batch, target model.TargetStack) ([]model.SourceFile, llm.TokenUsage, error)
}

// Request identifies the repository to convert and the target stack.
type Request struct {
	Token  string            `json:"token"`
	Owner  string            `json:"owner"`
	Repo   string            `json:"repo"`
	Branch string            `json:"branch"`
	Target model.TargetStack `json:"target,omitempty"`
}

// Validate reports ErrMissingFields when a required field is empty.
func (r Request) Validate() error {
	if r.Token == "" || r.Owner == "" || r.Repo == "" || r.Branch == "" {
		return ErrMissingFields
	}
	return nil
}

// Summary describes how a run went without exposing file content.
type Summary struct {
	Batches         int
	FallbackBatches int
	FilesIn         int
	FilesOut        int

	// Backend token counts summed over every answered call, including
	// batches that fell back.
	PromptTokens     int
	CompletionTokens int

	StartedAt time.Time
	Duration  time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	Files   model.ConversionResult
	Summary Summary
}

// Config holds pipeline tuning.
type Config struct {
	BatchSizeLimit int // <= 0 selects DefaultBatchSizeLimit
	Parallel       int // concurrent batch conversions; <= 1 is sequential
}

// Recorder is told the outcome of every run that passed validation.
// runErr is nil for successful runs.
type Recorder interface {
	RecordRun(ctx context.Context, req Request, summary Summary, runErr error)
}

// Pipeline runs Fetcher, batching and Converter for one request at a time.
// It keeps no state between runs and is safe for concurrent use when its
// collaborators are.
type Pipeline struct {
	fetcher   Fetcher
	converter Converter
	config    Config
	logger    log.Logger
	recorder  Recorder
}

// NewPipeline creates a Pipeline. A nil logger discards output.
func NewPipeline(fetcher Fetcher, converter Converter, config Config, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Pipeline{
		fetcher:   fetcher,
		converter: converter,
		config:    config,
		logger:    logger,
	}
}

// WithRecorder reports each run outcome to r.
func (p *Pipeline) WithRecorder(r Recorder) *Pipeline {
	p.recorder = r
	return p
}

// batchOutcome is the contribution of one batch to the result.
type batchOutcome struct {
	files    []model.SourceFile
	fellBack bool
	usage    llm.TokenUsage
}

// Run fetches, batches and converts the requested repository.
//
// A fetch failure is returned unchanged and no batch is converted. A batch
// whose conversion fails for any reason contributes its original files.
// Output is in batch order regardless of Parallel.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	logger := p.logger.With("owner", req.Owner, "repo", req.Repo, "branch", req.Branch)

	result, err := p.run(ctx, req, logger)
	result.Summary.StartedAt = start
	result.Summary.Duration = time.Since(start)

	if p.recorder != nil {
		p.recorder.RecordRun(context.WithoutCancel(ctx), req, result.Summary, err)
	}
	if err != nil {
		return Result{}, err
	}

	logger.Info("conversion finished",
		"batches", result.Summary.Batches,
		"fallback_batches", result.Summary.FallbackBatches,
		"files_out", result.Summary.FilesOut,
		"prompt_tokens", result.Summary.PromptTokens,
		"completion_tokens", result.Summary.CompletionTokens,
		"duration_ms", result.Summary.Duration.Milliseconds())
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, logger log.Logger) (Result, error) {
	files, err := p.fetcher.FetchSourceFiles(ctx, req.Token, req.Owner, req.Repo, req.Branch)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		return Result{}, err
	}

	batches := MakeBatches(files, p.config.BatchSizeLimit)
	logger.Info("converting", "files", len(files), "batches", len(batches))

	outcomes := make([]batchOutcome, len(batches))
	runBatch := func(ctx context.Context, i int) {
		batch := batches[i]
		converted, usage, err := p.converter.ConvertBatch(ctx, batch, req.Target)
		if err != nil {
			logger.Warn("batch conversion failed, keeping originals",
				"batch", i, "files", len(batch), "format_error", model.IsConversionFormat(err), "error", err)
			outcomes[i] = batchOutcome{files: batch, fellBack: true, usage: usage}
			return
		}
		logger.Debug("batch converted",
			"batch", i, "files_in", len(batch), "files_out", len(converted),
			"prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens)
		outcomes[i] = batchOutcome{files: converted, usage: usage}
	}

	if p.config.Parallel > 1 && len(batches) > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.config.Parallel)
		for i := range batches {
			g.Go(func() error {
				runBatch(gCtx, i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range batches {
			runBatch(ctx, i)
		}
	}

	summary := Summary{Batches: len(batches), FilesIn: len(files)}
	if err := ctx.Err(); err != nil {
		return Result{Summary: summary}, err
	}

	out := model.ConversionResult{}
	for _, o := range outcomes {
		out = append(out, o.files...)
		if o.fellBack {
			summary.FallbackBatches++
		}
		summary.PromptTokens += int(o.usage.PromptTokens)
		summary.CompletionTokens += int(o.usage.CompletionTokens)
	}
	summary.FilesOut = len(out)
	return Result{Files: out, Summary: summary}, nil
}
