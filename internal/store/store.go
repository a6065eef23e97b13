// Package store persists pipeline documents as JSON blobs keyed by
// collection and id. Writes merge into the existing document so repeated
// pipeline runs update rather than clobber.
package store

import (
	"context"
	"time"
)

// Query narrows a List call. Zero values mean "no filter".
type Query struct {
	// FieldEquals keeps documents whose top-level field equals the given
	// string value.
	FieldEquals map[string]string
	// TimeField names an RFC3339 string field compared against Since/Until.
	TimeField string
	Since     time.Time
	Until     time.Time
	// Limit caps the number of returned documents; 0 means unlimited.
	Limit int
}

// Store is the document persistence contract used by the pipeline.
type Store interface {
	// Exists reports whether a document is present without reading it.
	Exists(ctx context.Context, collection, id string) (bool, error)
	// UpsertMerge writes fields into the document, creating it if absent
	// and merging top-level keys over the stored version otherwise.
	UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error
	// Get reads one document. A missing document returns (nil, nil).
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	// List returns matching documents in unspecified order.
	List(ctx context.Context, collection string, q Query) ([]map[string]any, error)
	Close() error
}

// matches applies a Query to a decoded document.
func matches(doc map[string]any, q Query) bool {
	for field, want := range q.FieldEquals {
		got, _ := doc[field].(string)
		if got != want {
			return false
		}
	}
	if q.TimeField != "" && (!q.Since.IsZero() || !q.Until.IsZero()) {
		raw, _ := doc[q.TimeField].(string)
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return false
		}
		if !q.Since.IsZero() && ts.Before(q.Since) {
			return false
		}
		if !q.Until.IsZero() && ts.After(q.Until) {
			return false
		}
	}
	return true
}
