// Package server exposes the conversion pipeline and its collaborators over HTTP.
//
// Information Hiding:
// - Route table and request body shapes
// - CORS handling and request logging
// - Mapping of errors to {"error": msg} responses
// - OAuth redirect URI derivation
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/richinex/staxchange/auth"
	"github.com/richinex/staxchange/convert"
	"github.com/richinex/staxchange/github"
	"github.com/richinex/staxchange/internal/log"
	"github.com/richinex/staxchange/model"
	"github.com/richinex/staxchange/storage"
)

// Banner is the liveness text served at / and /main.
const Banner = "staxchange: repository stack conversion service\n"

const (
	maxBodyBytes    = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// Runner executes one conversion request.
type Runner interface {
	Run(ctx context.Context, req convert.Request) (convert.Result, error)
}

// RepoHost lists and creates repositories on behalf of a token holder.
type RepoHost interface {
	ListRepos(ctx context.Context, token string) ([]*gh.Repository, error)
	ListBranches(ctx context.Context, token, owner, repo string) (*github.BranchList, error)
	ExportRepo(ctx context.Context, token, name string, files []model.SourceFile) (string, error)
}

// Options wires the server's collaborators. Pipeline and GitHub are required.
type Options struct {
	Pipeline Runner
	GitHub   RepoHost
	OAuth    *auth.GitHubOAuth // nil disables the OAuth routes' code exchange
	Runs     storage.RunStore  // optional, reported by the health check
	Backend  string            // provider/model label; empty fails the llm health check
	// PublicURL is the externally visible origin. Empty derives it per request.
	PublicURL string
	Logger    log.Logger
}

// Server routes HTTP requests to the pipeline and GitHub helpers.
type Server struct {
	opts    Options
	logger  log.Logger
	handler http.Handler
	now     func() time.Time
}

// New builds a Server and its route table.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewNoop()
	}
	if opts.OAuth == nil {
		opts.OAuth = auth.New("", "")
	}
	s := &Server{opts: opts, logger: opts.Logger, now: time.Now}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /convert", s.handleConvert)
	mux.HandleFunc("POST /export-zip", s.handleExportZip)
	mux.HandleFunc("POST /export-github", s.handleExportGitHub)
	mux.HandleFunc("POST /github-repos", s.handleGitHubRepos)
	mux.HandleFunc("GET /github-auth-start", s.handleAuthStart)
	mux.HandleFunc("GET /github-oauth-callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health-check", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleBanner)
	mux.HandleFunc("GET /main", s.handleBanner)

	s.handler = withCORS(s.withRequestLog(mux))
	return s
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
