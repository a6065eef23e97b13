package signal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"signalpost/internal/fetch"
	"signalpost/internal/llm"
	"signalpost/internal/store"
)

type fakeCollector struct {
	results []fetch.Result
}

func (f *fakeCollector) FetchAll(ctx context.Context) []fetch.Result {
	return f.results
}

// stageGenerator answers scoring, drafting, and quality prompts so a full
// pipeline pass can run against fakes.
func stageGenerator(itemID string) *fakeGenerator {
	content := strings.Repeat("Try running your own eval harness before trusting benchmarks. ", 5)
	return &fakeGenerator{respond: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "relevance scorer"):
			return fmt.Sprintf(`[{"item_id": %q, "relevance_score": 90, "matched_topics": ["eval_frameworks"], "reasoning": "on topic"}]`, itemID), nil
		case strings.Contains(prompt, "draft post variants"):
			return fmt.Sprintf(`[
				{"draft_id": %q, "item_id": %q, "variant": 1, "content": %q},
				{"draft_id": %q, "item_id": %q, "variant": 2, "content": %q}
			]`,
				DeriveDraftID(itemID, 1), itemID, content,
				DeriveDraftID(itemID, 2), itemID, content+"Second angle."), nil
		case strings.Contains(prompt, "quality reviewer"):
			start := strings.Index(prompt, "(id ") + len("(id ")
			id := prompt[start : start+strings.Index(prompt[start:], ")")]
			return fmt.Sprintf(`{"draft_id": %q, "passed": true, "score": 80, "issues": [], "suggestions": []}`, id), nil
		}
		return "", errors.New("unexpected prompt")
	}}
}

func testPipeline(gen llm.Generator, collector Collector, st store.Store) *Pipeline {
	opts := llm.Options{}
	return NewPipeline(
		collector,
		NewRanker(gen, opts, nil),
		NewDrafter(gen, opts, 200, 600, 4000, nil),
		NewGate(gen, opts, 200, 600, 4000, nil),
		st,
		PipelineConfig{ShortlistThreshold: 60, ShortlistMax: 10, SanitizeMaxChars: 2000},
		nil,
	)
}

func TestPipelineRunHappyPath(t *testing.T) {
	url := "https://example.com/evals"
	itemID := Fingerprint(url)
	collector := &fakeCollector{results: []fetch.Result{
		{Source: "rss", Items: []fetch.Item{{URL: url, Title: "Eval harness writeup", Source: "rss"}}},
	}}
	st := store.NewMemoryStore()

	result := testPipeline(stageGenerator(itemID), collector, st).Run(context.Background())

	if len(result.Errors) != 0 {
		t.Fatalf("expected clean run, got errors: %v", result.Errors)
	}
	if result.ItemsCollected != 1 || result.ItemsShortlisted != 1 {
		t.Fatalf("expected 1 item through collection and shortlist, got %+v", result)
	}
	if result.DraftsGenerated != 2 || result.DraftsPassedQuality != 2 {
		t.Fatalf("expected 2 drafts passing quality, got %+v", result)
	}
	if !strings.HasPrefix(result.RunID, "run_") {
		t.Fatalf("unexpected run id %s", result.RunID)
	}

	ctx := context.Background()
	if ok, _ := st.Exists(ctx, CollectionItems, itemID); !ok {
		t.Fatalf("item should be persisted")
	}
	for variant := 1; variant <= 2; variant++ {
		doc, err := st.Get(ctx, CollectionDrafts, DeriveDraftID(itemID, variant))
		if err != nil || doc == nil {
			t.Fatalf("draft variant %d should be persisted", variant)
		}
		if doc["status"] != string(StatusPending) {
			t.Errorf("passing draft should stay pending, got %v", doc["status"])
		}
		if doc["quality_notes"] != "Passed" {
			t.Errorf("expected quality notes Passed, got %v", doc["quality_notes"])
		}
		if doc["quality_score"] != 80.0 {
			t.Errorf("expected quality score 80, got %v", doc["quality_score"])
		}
	}
}

func TestPipelineDedupesByURL(t *testing.T) {
	url := "https://example.com/evals"
	collector := &fakeCollector{results: []fetch.Result{
		{Source: "rss", Items: []fetch.Item{{URL: url, Title: "First sighting", Source: "rss"}}},
		{Source: "hackernews", Items: []fetch.Item{{URL: "  " + url + " ", Title: "Same link again", Source: "hackernews"}}},
	}}

	result := testPipeline(stageGenerator(Fingerprint(url)), collector, store.NewMemoryStore()).Run(context.Background())
	if result.ItemsCollected != 1 {
		t.Fatalf("duplicate URLs should collapse to one item, got %d", result.ItemsCollected)
	}
}

func TestPipelineRecordsFetchErrors(t *testing.T) {
	url := "https://example.com/evals"
	collector := &fakeCollector{results: []fetch.Result{
		{Source: "rss", Items: []fetch.Item{{URL: url, Title: "Eval harness writeup", Source: "rss"}}},
		{Source: "reddit", Err: errors.New("rate limited")},
	}}
	st := store.NewMemoryStore()

	result := testPipeline(stageGenerator(Fingerprint(url)), collector, st).Run(context.Background())
	if len(result.Errors) != 1 {
		t.Fatalf("expected the fetch error recorded, got %v", result.Errors)
	}
	if result.DraftsGenerated != 2 {
		t.Fatalf("surviving source should still flow through, got %+v", result)
	}
}

func TestPipelineIdempotentRerun(t *testing.T) {
	url := "https://example.com/evals"
	itemID := Fingerprint(url)
	collector := &fakeCollector{results: []fetch.Result{
		{Source: "rss", Items: []fetch.Item{{URL: url, Title: "Eval harness writeup", Source: "rss"}}},
	}}
	st := store.NewMemoryStore()
	ctx := context.Background()

	first := testPipeline(stageGenerator(itemID), collector, st).Run(ctx)
	if len(first.Errors) != 0 {
		t.Fatalf("first run failed: %v", first.Errors)
	}
	if first.ItemsCollected != 1 {
		t.Fatalf("first sighting should count, got %d", first.ItemsCollected)
	}
	firstItem, _ := st.Get(ctx, CollectionItems, itemID)

	second := testPipeline(stageGenerator(itemID), collector, st).Run(ctx)
	if len(second.Errors) != 0 {
		t.Fatalf("second run failed: %v", second.Errors)
	}
	if second.ItemsCollected != 0 {
		t.Fatalf("already-stored URLs must not re-count, got %d", second.ItemsCollected)
	}

	items, err := st.List(ctx, CollectionItems, store.Query{})
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("rerun should not duplicate items, got %d", len(items))
	}
	rerunItem, _ := st.Get(ctx, CollectionItems, itemID)
	if rerunItem["collected_at"] != firstItem["collected_at"] {
		t.Fatalf("first write should win for items")
	}

	drafts, err := st.List(ctx, CollectionDrafts, store.Query{})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("rerun should not duplicate drafts, got %d", len(drafts))
	}
}

func TestPipelineFinishesDoneWhenAllSourcesFail(t *testing.T) {
	collector := &fakeCollector{results: []fetch.Result{
		{Source: "rss", Err: errors.New("down")},
		{Source: "reddit", Err: errors.New("down")},
	}}

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	pipe := NewPipeline(
		collector,
		NewRanker(&fakeGenerator{}, llm.Options{}, nil),
		NewDrafter(&fakeGenerator{}, llm.Options{}, 200, 600, 4000, nil),
		NewGate(&fakeGenerator{}, llm.Options{}, 200, 600, 4000, nil),
		store.NewMemoryStore(),
		PipelineConfig{ShortlistThreshold: 60, ShortlistMax: 10},
		log,
	)

	result := pipe.Run(context.Background())
	if len(result.Errors) != 2 {
		t.Fatalf("both fetch errors should be recorded, got %v", result.Errors)
	}
	if result.ItemsCollected != 0 {
		t.Fatalf("nothing should be collected, got %d", result.ItemsCollected)
	}

	logged := buf.String()
	if !strings.Contains(logged, "stage="+StageDone) {
		t.Fatalf("fetch-only failures should still finish DONE, logs:\n%s", logged)
	}
	if strings.Contains(logged, "stage="+StageFailed) {
		t.Fatalf("FAILED is reserved for runs that could not start, logs:\n%s", logged)
	}
}

func TestPipelineRejectsFailedDrafts(t *testing.T) {
	url := "https://example.com/evals"
	itemID := Fingerprint(url)
	gen := stageGenerator(itemID)
	inner := gen.respond
	gen.respond = func(prompt string) (string, error) {
		if strings.Contains(prompt, "quality reviewer") {
			start := strings.Index(prompt, "(id ") + len("(id ")
			id := prompt[start : start+strings.Index(prompt[start:], ")")]
			return fmt.Sprintf(`{"draft_id": %q, "passed": false, "score": 20, "issues": ["too generic"], "suggestions": []}`, id), nil
		}
		return inner(prompt)
	}

	collector := &fakeCollector{results: []fetch.Result{
		{Source: "rss", Items: []fetch.Item{{URL: url, Title: "Eval harness writeup", Source: "rss"}}},
	}}
	st := store.NewMemoryStore()

	result := testPipeline(gen, collector, st).Run(context.Background())
	if result.DraftsPassedQuality != 0 {
		t.Fatalf("no drafts should pass, got %d", result.DraftsPassedQuality)
	}

	doc, _ := st.Get(context.Background(), CollectionDrafts, DeriveDraftID(itemID, 1))
	if doc["status"] != string(StatusRejected) {
		t.Fatalf("failed draft should be rejected, got %v", doc["status"])
	}
	if doc["quality_notes"] != "too generic" {
		t.Fatalf("issues should land in quality notes, got %v", doc["quality_notes"])
	}
}
