// Package engine defines the contract between the search repository and the
// search backends. Queries are expressed as Solr request parameters and
// answers as the Solr JSON response shape; every driver speaks that dialect.
package engine

import "context"

// Engine executes compiled queries.
type Engine interface {
	Name() string
	Select(ctx context.Context, params Params) (*Response, error)
	Ping(ctx context.Context) error
}

// Indexer writes documents into the engine, replacing documents with the same id.
type Indexer interface {
	Index(ctx context.Context, docs []Document) error
}

// Document is a product document as stored in the index.
type Document map[string]any

// ID returns the document id or "".
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}
