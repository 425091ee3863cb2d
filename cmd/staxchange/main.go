// Package main provides the staxchange CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/staxchange/cli"
)

var (
	// Global flags
	provider   string
	configPath string
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "staxchange",
		Short: "Convert a GitHub repository to another stack with an LLM",
		Long: `Fetches the source files of a GitHub repository branch, converts them
batch by batch with an LLM backend, and returns the converted files.

Batches the backend fails on keep their original files.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openrouter, openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(reposCmd())
	rootCmd.AddCommand(branchesCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider:   provider,
		ConfigPath: configPath,
		Verbose:    verbose,
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Serves /convert, /export-zip, /export-github, /github-repos, the GitHub
OAuth routes and /health on HOST:PORT (default 0.0.0.0:9000).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.Serve(ctx, options())
		},
	}
}

func convertCmd() *cobra.Command {
	var copts cli.ConvertOptions

	cmd := &cobra.Command{
		Use:   "convert owner/repo",
		Short: "Convert one repository branch",
		Long: `Converts one repository branch and prints {"files": [...]} as JSON,
or writes a zip archive with --out.

The target stack descriptor may be JSON or YAML (.yaml, .yml).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return cli.Convert(ctx, args[0], copts, options())
		},
	}

	cmd.Flags().StringVarP(&copts.Branch, "branch", "b", "main", "Branch to convert")
	cmd.Flags().StringVarP(&copts.TargetPath, "target", "t", "", "Target stack descriptor file")
	cmd.Flags().StringVarP(&copts.OutPath, "out", "o", "", "Write a zip archive instead of JSON")
	cmd.Flags().StringVar(&copts.Token, "token", "", "GitHub token (default $GITHUB_TOKEN)")

	return cmd
}

func reposCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "List repositories visible to the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Repos(context.Background(), token, options())
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default $GITHUB_TOKEN)")
	return cmd
}

func branchesCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "branches owner/repo",
		Short: "List branches of a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Branches(context.Background(), args[0], token, options())
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default $GITHUB_TOKEN)")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.History(context.Background(), limit, options())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}
