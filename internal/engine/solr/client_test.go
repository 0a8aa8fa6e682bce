package solr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buildy-mcbuild/storefront/internal/engine"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL+"/solr/"), WithCore("products"), WithHTTPClient(srv.Client()))
}

func TestSelect_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/solr/products/select" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "*:*" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if got := q["fq"]; len(got) != 2 {
			t.Errorf("fq = %v", got)
		}
		if q.Get("wt") != "json" {
			t.Errorf("wt = %q", q.Get("wt"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"responseHeader": {"status": 0, "QTime": 1},
			"response": {"numFound": 1, "start": 0, "docs": [{"id": "p1", "price": 9.5}]},
			"facet_counts": {"facet_fields": {"category": ["Wood", 1]}, "facet_ranges": {}},
			"highlighting": {"p1": {}}
		}`)
	})

	var p engine.Params
	p.Add("q", "*:*")
	p.Add("fq", `category:("Wood")`)
	p.Add("fq", "stock:[1 TO *]")

	resp, err := c.Select(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response.NumFound != 1 || len(resp.Response.Docs) != 1 {
		t.Fatalf("unexpected response: %+v", resp.Response)
	}
	if string(resp.Response.Docs[0]["id"]) != `"p1"` {
		t.Errorf("id = %s", resp.Response.Docs[0]["id"])
	}
	if len(resp.FacetCounts.FacetFields["category"]) != 2 {
		t.Errorf("facet fields = %v", resp.FacetCounts.FacetFields)
	}
	if _, ok := resp.Highlighting["p1"]; !ok {
		t.Error("highlighting entry missing")
	}
}

func TestSelect_ErrorStatusCarriesSolrMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"responseHeader":{"status":400},"error":{"msg":"undefined field colour","code":400}}`)
	})

	_, err := c.Select(context.Background(), engine.Params{{Key: "q", Value: "colour:red"}})
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected *engine.Error, got %v", err)
	}
	if engErr.StatusCode != 400 || engErr.Message != "undefined field colour" || engErr.Op != engine.OpSelect {
		t.Errorf("unexpected error: %+v", engErr)
	}
}

func TestSelect_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "  upstream overloaded \n")
	})

	_, err := c.Select(context.Background(), engine.Params{{Key: "q", Value: "*:*"}})
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		t.Fatalf("expected *engine.Error, got %v", err)
	}
	if engErr.StatusCode != 503 || engErr.Message != "upstream overloaded" {
		t.Errorf("unexpected error: %+v", engErr)
	}
}

func TestSelect_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})
	_, err := c.Select(context.Background(), engine.Params{{Key: "q", Value: "*:*"}})
	if err == nil || !strings.Contains(err.Error(), "decoding response") {
		t.Errorf("err = %v", err)
	}
}

func TestSelect_ContextTimeout(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Select(ctx, engine.Params{{Key: "q", Value: "*:*"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestSelect_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(WithBaseURL(url))
	_, err := c.Select(context.Background(), engine.Params{{Key: "q", Value: "*:*"}})
	var engErr *engine.Error
	if !errors.As(err, &engErr) || engErr.Err == nil {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestPing(t *testing.T) {
	var status atomic.Value
	status.Store("OK")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/solr/products/admin/ping" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"status":"`+status.Load().(string)+`"}`)
	})

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status.Store("FAIL")
	if err := c.Ping(context.Background()); err == nil {
		t.Error("expected error for non-OK status")
	}
}

func TestIndex(t *testing.T) {
	var got []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/solr/products/update" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("commit") != "true" {
			t.Error("expected commit=true")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"responseHeader":{"status":0,"QTime":5}}`)
	})

	err := c.Index(context.Background(), []engine.Document{{"id": "p1", "name": "Oak"}, {"id": "p2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0]["name"] != "Oak" {
		t.Errorf("posted = %v", got)
	}
}

func TestIndex_Empty(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"))
	if err := c.Index(context.Background(), nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	if c.url("select") != "http://localhost:8983/solr/products/select" {
		t.Errorf("url = %s", c.url("select"))
	}
	if c.Name() != "solr" {
		t.Errorf("Name() = %s", c.Name())
	}
}
