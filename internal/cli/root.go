// Package cli wires the signalpost commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"signalpost/internal/config"
	"signalpost/internal/fetch"
	"signalpost/internal/llm"
	"signalpost/internal/logging"
	"signalpost/internal/signal"
	"signalpost/internal/store"
)

var storePath string

var rootCmd = &cobra.Command{
	Use:   "signalpost",
	Short: "AI/ML content signal pipeline: collect, rank, draft, review, schedule",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Path to the SQLite store (overrides SIGNALPOST_STORE_PATH)")
}

// app bundles everything a command needs.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	store store.Store
}

func newApp() (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if storePath != "" {
		cfg.StorePath = storePath
	}

	log := logging.New(cfg.LogLevel)

	st, err := store.OpenSQLite(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &app{cfg: cfg, log: log, store: st}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", "error", err)
	}
}

// buildPipeline assembles the full orchestrator from config.
func (a *app) buildPipeline() *signal.Pipeline {
	var gen llm.Generator
	if a.cfg.LLMAPIKey != "" {
		var llmOpts []func(*llm.Client)
		if a.cfg.LLMBaseURL != "" {
			llmOpts = append(llmOpts, llm.WithBaseURL(a.cfg.LLMBaseURL))
		}
		gen = llm.NewClient(a.cfg.LLMAPIKey, a.cfg.LLMModel, llmOpts...)
	} else {
		a.log.Warn("no LLM API key configured, running on heuristic fallbacks")
	}
	genOpts := llm.Options{MaxTokens: a.cfg.LLMMaxTokens, Temperature: a.cfg.LLMTemperature}

	httpClient := fetch.NewClient(fetch.WithRetryPolicy(a.cfg.RetryMaxAttempts, a.cfg.RetryBackoffBase))
	keywords := a.cfg.AIKeywords
	if len(keywords) == 0 {
		keywords = fetch.DefaultAIKeywords
	}
	filter := fetch.NewKeywordFilter(keywords)

	registry := fetch.NewRegistry(a.log,
		fetch.NewGitHubTrending(httpClient, filter),
		fetch.NewHackerNews(httpClient, filter),
		fetch.NewReddit(httpClient, a.cfg.Subreddits),
		fetch.NewProductHunt(httpClient, filter),
		fetch.NewArxiv(httpClient, a.cfg.ArxivQuery),
		fetch.NewRSS(httpClient, a.cfg.Feeds),
	)

	ranker := signal.NewRanker(gen, genOpts, a.log)
	drafter := signal.NewDrafter(gen, genOpts, a.cfg.StyleMinChars, a.cfg.StyleMaxChars, a.cfg.HardCharLimit, a.log)
	gate := signal.NewGate(gen, genOpts, a.cfg.StyleMinChars, a.cfg.StyleMaxChars, a.cfg.HardCharLimit, a.log)

	return signal.NewPipeline(registry, ranker, drafter, gate, a.store, signal.PipelineConfig{
		ShortlistThreshold: a.cfg.ShortlistThreshold,
		ShortlistMax:       a.cfg.ShortlistMax,
		SanitizeMaxChars:   a.cfg.SanitizeMaxChars,
	}, a.log)
}
