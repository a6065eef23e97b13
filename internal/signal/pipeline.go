package signal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"signalpost/internal/fetch"
	"signalpost/internal/store"
)

// Storage collection names.
const (
	CollectionItems  = "signal_items"
	CollectionDrafts = "draft_posts"
)

// Stage labels for run progress logging.
const (
	StageCollecting      = "COLLECTING"
	StageRanking         = "RANKING"
	StageDrafting        = "DRAFTING"
	StageQualityChecking = "QUALITY_CHECKING"
	StagePersisting      = "PERSISTING"
	StageDone            = "DONE"
	StageFailed          = "FAILED"
)

// Collector produces per-source fetch results. The fetch registry satisfies
// this; tests substitute fakes.
type Collector interface {
	FetchAll(ctx context.Context) []fetch.Result
}

// PipelineConfig carries the tunables for one orchestrator.
type PipelineConfig struct {
	ShortlistThreshold float64
	ShortlistMax       int
	SanitizeMaxChars   int
}

// Pipeline runs the full collect-rank-draft-check-persist sequence. Every
// stage degrades rather than aborts: errors are recorded on the RunResult and
// whatever was produced still gets persisted.
type Pipeline struct {
	collector Collector
	ranker    *Ranker
	drafter   *Drafter
	gate      *Gate
	store     store.Store
	cfg       PipelineConfig
	log       *slog.Logger
}

func NewPipeline(collector Collector, ranker *Ranker, drafter *Drafter, gate *Gate, st store.Store, cfg PipelineConfig, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if cfg.SanitizeMaxChars <= 0 {
		cfg.SanitizeMaxChars = DefaultSanitizeMax
	}
	return &Pipeline{
		collector: collector,
		ranker:    ranker,
		drafter:   drafter,
		gate:      gate,
		store:     st,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes one pipeline pass. The returned result always carries whatever
// counts were reached; an empty Errors slice is the success signal.
func (p *Pipeline) Run(ctx context.Context) RunResult {
	result := RunResult{
		RunID:     NewRunID(),
		StartedAt: time.Now().UTC(),
		Errors:    []string{},
	}
	log := p.log.With("run_id", result.RunID)
	log.Info("pipeline run started")

	// COLLECTING
	log.Info("stage", "stage", StageCollecting)
	items := p.collect(ctx, &result, log)

	// RANKING
	log.Info("stage", "stage", StageRanking)
	var shortlisted []ScoredItem
	if len(items) > 0 {
		scored := p.ranker.ScoreItems(ctx, items)
		var qualified int
		shortlisted, qualified = Shortlist(scored, p.cfg.ShortlistThreshold, p.cfg.ShortlistMax)
		result.ItemsShortlisted = len(shortlisted)
		log.Info("shortlist built", "qualified", qualified, "kept", len(shortlisted))
	}

	// DRAFTING
	log.Info("stage", "stage", StageDrafting)
	var drafts []DraftPost
	for _, item := range shortlisted {
		generated, err := p.drafter.Generate(ctx, item)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("drafting %s: %v", item.ItemID, err))
			continue
		}
		drafts = append(drafts, generated...)
	}

	// QUALITY_CHECKING
	log.Info("stage", "stage", StageQualityChecking)
	var checks []QualityCheckResult
	if len(drafts) > 0 {
		checks = p.gate.Check(ctx, drafts)
	}

	// PERSISTING
	log.Info("stage", "stage", StagePersisting)
	p.persistItems(ctx, items, &result, log)
	persistedIDs := p.persistDrafts(ctx, drafts, &result, log)
	p.persistQuality(ctx, checks, persistedIDs, &result, log)

	result.CompletedAt = time.Now().UTC()
	log.Info("pipeline run finished",
		"stage", StageDone,
		"items_collected", result.ItemsCollected,
		"items_shortlisted", result.ItemsShortlisted,
		"drafts_generated", result.DraftsGenerated,
		"drafts_passed_quality", result.DraftsPassedQuality,
		"errors", len(result.Errors))
	return result
}

// collect fans out over the sources, normalizes raw items, and dedupes by
// URL fingerprint (first occurrence wins).
func (p *Pipeline) collect(ctx context.Context, result *RunResult, log *slog.Logger) []SignalItem {
	var items []SignalItem
	seen := map[string]bool{}

	for _, res := range p.collector.FetchAll(ctx) {
		if res.Err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("fetching %s: %v", res.Source, res.Err))
			continue
		}
		for _, raw := range res.Items {
			item, err := NewSignalItem(
				raw.URL,
				Sanitize(raw.Title, p.cfg.SanitizeMaxChars),
				ParseSource(raw.Source),
				Sanitize(raw.Description, p.cfg.SanitizeMaxChars),
				raw.Metadata,
			)
			if err != nil {
				log.Warn("skipping invalid item", "source", res.Source, "error", err)
				continue
			}
			id := item.ItemID()
			if seen[id] {
				continue
			}
			seen[id] = true
			items = append(items, item)
		}
	}
	return items
}

// persistItems writes every collected item that is not already stored.
// Existing documents are left alone so the first collection of a URL wins,
// and only newly written items count as collected.
func (p *Pipeline) persistItems(ctx context.Context, items []SignalItem, result *RunResult, log *slog.Logger) {
	for _, item := range items {
		id := item.ItemID()
		exists, err := p.store.Exists(ctx, CollectionItems, id)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persisting item %s: %v", id, err))
			continue
		}
		if exists {
			log.Debug("item already stored", "item_id", id)
			continue
		}
		if err := p.store.UpsertMerge(ctx, CollectionItems, id, item.Fields()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persisting item %s: %v", id, err))
			continue
		}
		result.ItemsCollected++
	}
}

// persistDrafts upserts every draft and returns the ids written, in order.
func (p *Pipeline) persistDrafts(ctx context.Context, drafts []DraftPost, result *RunResult, log *slog.Logger) []string {
	var ids []string
	for _, draft := range drafts {
		if err := p.store.UpsertMerge(ctx, CollectionDrafts, draft.DraftID, draft.Fields()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persisting draft %s: %v", draft.DraftID, err))
			continue
		}
		ids = append(ids, draft.DraftID)
		result.DraftsGenerated++
	}
	return ids
}

// persistQuality merges gate verdicts into the persisted drafts. Verdicts are
// matched to drafts by exact id, then by position, and dropped with a warning
// otherwise.
func (p *Pipeline) persistQuality(ctx context.Context, checks []QualityCheckResult, persistedIDs []string, result *RunResult, log *slog.Logger) {
	known := map[string]bool{}
	for _, id := range persistedIDs {
		known[id] = true
	}

	for i, check := range checks {
		id := check.DraftID
		if !known[id] {
			if i < len(persistedIDs) {
				log.Warn("quality verdict id mismatch, matching by position", "verdict_id", id, "draft_id", persistedIDs[i])
				id = persistedIDs[i]
			} else {
				log.Warn("dropping unmatched quality verdict", "verdict_id", id)
				continue
			}
		}

		notes := "Passed"
		if len(check.Issues) > 0 {
			notes = strings.Join(check.Issues, "; ")
		}
		fields := map[string]any{
			"quality_score": check.Score,
			"quality_notes": notes,
		}
		if !check.Passed {
			fields["status"] = string(StatusRejected)
		}
		if err := p.store.UpsertMerge(ctx, CollectionDrafts, id, fields); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persisting quality for %s: %v", id, err))
			continue
		}
		if check.Passed {
			result.DraftsPassedQuality++
		}
	}
}
