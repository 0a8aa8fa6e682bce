package sdk

import (
	"context"
	"time"

	"github.com/buildy-mcbuild/storefront/internal/engine"
	"github.com/buildy-mcbuild/storefront/internal/usecase/indexing"
)

// IndexReport summarizes an Index call.
type IndexReport = indexing.Report

// ProgressFunc receives the number of committed documents after each batch.
type ProgressFunc = indexing.ProgressFunc

// Index writes docs to the engine in batches, retrying transient failures.
// progress may be nil.
func (c *Client) Index(ctx context.Context, docs []Document, progress ProgressFunc) (IndexReport, error) {
	start := time.Now()
	rep, err := c.indexSvc.Index(c.withLogger(ctx), docs, progress)
	c.obs.observe("index", start, err)
	return rep, err
}

// LoadDocuments reads a YAML or JSON product catalog.
func LoadDocuments(path string) ([]Document, error) {
	return engine.LoadDocuments(path)
}
