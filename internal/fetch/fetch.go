// Package fetch collects candidate items from public AI/ML content sources.
// Each source is independent: one failing source never blocks the others.
// Items come back raw; normalization happens downstream.
package fetch

import (
	"context"
	"log/slog"
	"sync"
)

// Item is one candidate piece of content as a source reported it.
type Item struct {
	URL         string
	Title       string
	Source      string
	Description string
	Metadata    map[string]any
}

// Result is the outcome of one source's fetch. Err is set when the source
// failed entirely; a source can also succeed with zero items.
type Result struct {
	Source string
	Items  []Item
	Err    error
}

// Source fetches items from one upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context) Result
}

// Registry fans out over a fixed set of sources.
type Registry struct {
	sources []Source
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger, sources ...Source) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{sources: sources, log: log}
}

// FetchAll runs every source concurrently and returns one result per source,
// in registration order.
func (r *Registry) FetchAll(ctx context.Context) []Result {
	results := make([]Result, len(r.sources))
	var wg sync.WaitGroup
	for i, src := range r.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			res := src.Fetch(ctx)
			if res.Err != nil {
				r.log.Warn("source fetch failed", "source", src.Name(), "error", res.Err)
			} else {
				r.log.Info("source fetched", "source", src.Name(), "items", len(res.Items))
			}
			results[i] = res
		}(i, src)
	}
	wg.Wait()
	return results
}
