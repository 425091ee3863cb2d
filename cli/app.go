// Application wiring for CLI commands.
//
// Information Hiding:
// - Settings, provider and pipeline construction hidden
// - Run ledger lifecycle hidden
// - Output formatting hidden

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/richinex/staxchange/config"
	"github.com/richinex/staxchange/convert"
	"github.com/richinex/staxchange/github"
	"github.com/richinex/staxchange/internal/log"
	"github.com/richinex/staxchange/llm"
	"github.com/richinex/staxchange/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider   string
	ConfigPath string
	Verbose    bool
}

// app holds the collaborators shared by every command.
type app struct {
	settings config.Settings
	logger   log.Logger
	github   *github.Client
	runs     storage.RunStore // nil when the ledger is disabled
}

func newApp(opts Options) (*app, error) {
	settings, err := config.Load(opts.ConfigPath, opts.Provider)
	if err != nil {
		return nil, err
	}

	level := log.ParseLevel(settings.Log.Level)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := log.New(log.NewHandler(os.Stderr, level, settings.Log.Format))
	log.SetDefault(logger)

	ghOpts := []github.Option{
		github.WithMaxFiles(settings.Pipeline.MaxFiles),
		github.WithLogger(log.Component("github")),
	}
	if settings.GitHub.APIURL != "" {
		ghOpts = append(ghOpts, github.WithBaseURL(settings.GitHub.APIURL))
	}

	a := &app{
		settings: settings,
		logger:   logger,
		github:   github.NewClient(ghOpts...),
	}

	if settings.Storage.DBPath != "" {
		store, err := storage.OpenSqlite(settings.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open run ledger: %w", err)
		}
		a.runs = store
	}
	return a, nil
}

func (a *app) close() {
	if a.runs != nil {
		if err := a.runs.Close(); err != nil {
			a.logger.Warn("failed to close run ledger", "error", err)
		}
	}
}

// pipeline builds the conversion pipeline. A missing backend credential is
// reported before any network call.
func (a *app) pipeline() (*convert.Pipeline, llm.Provider, error) {
	provider, err := createProvider(a.settings)
	if err != nil {
		return nil, nil, err
	}

	client := convert.NewClient(provider, convert.WithJSONMode(a.settings.LLM.JSONMode))
	p := convert.NewPipeline(a.github, client, convert.Config{
		BatchSizeLimit: a.settings.Pipeline.BatchSizeLimit,
		Parallel:       a.settings.Pipeline.Parallel,
	}, log.Component("pipeline"))

	if a.runs != nil {
		p = p.WithRecorder(storage.NewLedger(a.runs, provider.Name(), provider.Model(), log.Component("ledger")))
	}
	return p, provider, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}
