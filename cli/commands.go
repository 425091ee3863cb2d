// Command execution for CLI commands.
//
// Information Hiding:
// - Command dispatch logic hidden
// - Token resolution hidden

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/richinex/staxchange/archive"
	"github.com/richinex/staxchange/auth"
	"github.com/richinex/staxchange/convert"
	"github.com/richinex/staxchange/internal/log"
	"github.com/richinex/staxchange/server"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	Branch     string
	TargetPath string
	OutPath    string // empty writes JSON to stdout
	Token      string
}

// resolveToken returns the explicit token or GITHUB_TOKEN.
func resolveToken(token string) (string, error) {
	if token != "" {
		return token, nil
	}
	if token = os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("a GitHub token is required: pass --token or set GITHUB_TOKEN")
}

// Serve runs the HTTP service until ctx is cancelled.
func Serve(ctx context.Context, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline, provider, err := a.pipeline()
	if err != nil {
		return err
	}

	s := server.New(server.Options{
		Pipeline:  pipeline,
		GitHub:    a.github,
		OAuth:     auth.New(a.settings.GitHub.ClientID, a.settings.GitHub.ClientSecret),
		Runs:      a.runs,
		Backend:   provider.Name() + "/" + provider.Model(),
		PublicURL: a.settings.Server.PublicURL,
		Logger:    log.Component("server"),
	})
	return s.ListenAndServe(ctx, a.settings.Server.Addr())
}

// Convert runs one conversion and writes the result as JSON or a zip archive.
func Convert(ctx context.Context, repoSpec string, copts ConvertOptions, opts Options) error {
	owner, repo, err := ParseRepo(repoSpec)
	if err != nil {
		return err
	}
	token, err := resolveToken(copts.Token)
	if err != nil {
		return err
	}
	target, err := LoadTarget(copts.TargetPath)
	if err != nil {
		return err
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline, provider, err := a.pipeline()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Converting %s/%s@%s with %s (%s)...\n", owner, repo, copts.Branch, provider.Name(), provider.Model())

	result, err := pipeline.Run(ctx, convert.Request{
		Token:  token,
		Owner:  owner,
		Repo:   repo,
		Branch: copts.Branch,
		Target: target,
	})
	if err != nil {
		return err
	}

	s := result.Summary
	fmt.Fprintf(os.Stderr, "%d files in, %d files out, %d/%d batches kept originals, %d+%d tokens (%s)\n",
		s.FilesIn, s.FilesOut, s.FallbackBatches, s.Batches, s.PromptTokens, s.CompletionTokens, s.Duration.Round(time.Millisecond))

	if copts.OutPath == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"files": result.Files})
	}

	f, err := os.Create(copts.OutPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", copts.OutPath, err)
	}
	if err := archive.WriteZip(f, result.Files); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", copts.OutPath)
	return nil
}

// Repos lists the token owner's repositories.
func Repos(ctx context.Context, token string, opts Options) error {
	token, err := resolveToken(token)
	if err != nil {
		return err
	}
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	repos, err := a.github.ListRepos(ctx, token)
	if err != nil {
		return err
	}
	for _, r := range repos {
		fmt.Printf("%-40s %s\n", r.GetFullName(), r.GetDefaultBranch())
	}
	return nil
}

// Branches lists the branches of owner/repo, marking the default.
func Branches(ctx context.Context, repoSpec, token string, opts Options) error {
	owner, repo, err := ParseRepo(repoSpec)
	if err != nil {
		return err
	}
	token, err = resolveToken(token)
	if err != nil {
		return err
	}
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	list, err := a.github.ListBranches(ctx, token, owner, repo)
	if err != nil {
		return err
	}
	for _, b := range list.Branches {
		marker := " "
		if b.GetName() == list.DefaultBranch {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, b.GetName())
	}
	return nil
}

// History prints recent runs from the ledger.
func History(ctx context.Context, limit int, opts Options) error {
	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	if a.runs == nil {
		return fmt.Errorf("run ledger disabled: set STAXCHANGE_DB or [storage] db_path")
	}

	runs, err := a.runs.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		started := time.Unix(r.StartedAt, 0).Format(time.DateTime)
		fmt.Printf("%s  %s  %-9s %s/%s@%s  %d->%d files, %d/%d fallback, %dms",
			shortID(r.ID), started, r.Status, r.Owner, r.Repo, r.Branch,
			r.FilesIn, r.FilesOut, r.FallbackBatches, r.Batches, r.DurationMs)
		if r.Error != "" {
			fmt.Printf("  error: %s", r.Error)
		}
		fmt.Println()
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
