package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chiTransport "github.com/buildy-mcbuild/storefront/internal/transport/chi"
)

const (
	fixture      = "../../testdata/products.yaml"
	priceFixture = "../../testdata/prices.yaml"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runErr(t, args...)
	require.NoError(t, err)
	return out
}

func runErr(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("searchctl"),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.BindTo(&out, (*io.Writer)(nil)),
	)
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = ctx.Run(cli)
	return out.String(), err
}

func TestQueryFlags_Values(t *testing.T) {
	q := QueryFlags{
		Query:    "oak board",
		Filter:   map[string]string{"category": "Wood,Tools"},
		IDs:      []string{"a", "b"},
		PriceMin: "10",
		InStock:  true,
		Page:     2,
	}
	v := q.Values()

	assert.Equal(t, "oak board", v.Get("q"))
	assert.Equal(t, "Wood,Tools", v.Get("category"))
	assert.Equal(t, "a,b", v.Get("ids"))
	assert.Equal(t, "10", v.Get("priceMin"))
	assert.Empty(t, v.Get("priceMax"))
	assert.Equal(t, "true", v.Get("inStock"))
	assert.Equal(t, "2", v.Get("page"))
	assert.False(t, v.Has("limit"))
}

func TestCompile(t *testing.T) {
	out := run(t, "compile", "oak", "--sort", "price_asc", "--limit", "5")

	assert.Contains(t, out, "q=oak\n")
	assert.Contains(t, out, "sort=price asc\n")
	assert.Contains(t, out, "rows=5\n")
}

func TestCompile_Suggest(t *testing.T) {
	out := run(t, "compile", "--suggest", "ham")

	assert.Contains(t, out, "q=ham\n")
	assert.Contains(t, out, "rows=8\n")
}

func TestSearch_Fixture(t *testing.T) {
	out := run(t, "--fixture", fixture, "search", "oak", "--limit", "2")

	var resp chiTransport.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "memory", resp.Source)
	assert.Len(t, resp.Products, 2)
	assert.Equal(t, 2, resp.Pagination.Limit)
}

func TestSuggest_Fixture(t *testing.T) {
	out := run(t, "--fixture", fixture, "suggest", "hamm")

	var resp chiTransport.SuggestResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, "tl-hammer-16", resp.Suggestions[0].ID)
}

func TestIndex_Fixture(t *testing.T) {
	out := run(t, "--fixture", fixture, "index", fixture, "--no-progress", "--batch-size", "5")

	assert.Equal(t, "Indexed 13 documents in 3 batches into memory\n", out)
}

func TestPricesLoad_Memory(t *testing.T) {
	out := run(t, "prices", "load", priceFixture, "--driver", "memory", "--no-progress")

	assert.Equal(t, "Loaded 6 prices into memory (validation only)\n", out)
}

func TestPricesLoad_Errors(t *testing.T) {
	_, err := runErr(t, "prices", "load", priceFixture, "--driver", "none", "--no-progress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"none"`)

	bad := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("prices:\n  - amount: 3\n"), 0o600))
	_, err = runErr(t, "prices", "load", bad, "--driver", "memory", "--no-progress")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing sku")
}

func TestHealth_Fixture(t *testing.T) {
	out := run(t, "--fixture", fixture, "health")

	assert.Contains(t, out, "ok (memory)")
	assert.Contains(t, out, "search: ok")
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "searchctl dev")
}
