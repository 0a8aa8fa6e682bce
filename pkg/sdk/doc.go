// Package sdk runs the storefront search pipeline in-process: query
// compilation, engine execution, result normalization and autocomplete,
// without going through the HTTP server.
//
// # Against a Solr core
//
//	client, _ := sdk.New(ctx, sdk.WithSolr("http://localhost:8983/solr", "products"))
//	res, _ := client.Search(ctx, sdk.Query{FreeText: "oak table", Limit: 10})
//
// # Against an embedded fixture
//
//	client, _ := sdk.New(ctx, sdk.WithMemoryFixture("testdata/products.yaml"))
//	suggestions := client.Suggest(ctx, "dri")
//
// Search and Suggest follow the HTTP contract: an unreachable engine is
// reported as *UnavailableError from Search and as a degraded result from
// Suggest.
package sdk
