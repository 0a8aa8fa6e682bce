package engine

import "encoding/json"

// Response mirrors the Solr select JSON response. Polymorphic parts are kept
// raw and decoded by the result normalizer.
type Response struct {
	Header       ResponseHeader                 `json:"responseHeader"`
	Response     DocList                        `json:"response"`
	FacetCounts  *FacetCounts                   `json:"facet_counts,omitempty"`
	Highlighting map[string]map[string][]string `json:"highlighting,omitempty"`
	Error        *ErrorBody                     `json:"error,omitempty"`
}

// ResponseHeader carries status and timing.
type ResponseHeader struct {
	Status int `json:"status"`
	QTime  int `json:"QTime"`
}

// DocList is the matched document window.
type DocList struct {
	NumFound int64                        `json:"numFound"`
	Start    int64                        `json:"start"`
	Docs     []map[string]json.RawMessage `json:"docs"`
}

// FacetCounts holds field facets as flat [value, count, ...] arrays and range facets.
type FacetCounts struct {
	FacetFields map[string][]json.RawMessage `json:"facet_fields,omitempty"`
	FacetRanges map[string]RangeFacet        `json:"facet_ranges,omitempty"`
}

// RangeFacet is a bucketed numeric facet; Counts is a flat [start, count, ...] array.
type RangeFacet struct {
	Counts []json.RawMessage `json:"counts"`
	Gap    json.RawMessage   `json:"gap,omitempty"`
	Start  json.RawMessage   `json:"start,omitempty"`
	End    json.RawMessage   `json:"end,omitempty"`
	After  *int64            `json:"after,omitempty"`
}

// ErrorBody is the Solr error envelope.
type ErrorBody struct {
	Msg  string `json:"msg"`
	Code int    `json:"code"`
}
