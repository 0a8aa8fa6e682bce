package sdk

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	searchrepo "github.com/buildy-mcbuild/storefront/internal/repository/search"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverSolr   = "solr"
	driverMemory = "memory"
)

type clientConfig struct {
	driver string

	solrURL    string
	solrCore   string
	httpClient *http.Client

	fixturePath string
	documents   []Document

	compiler *searchrepo.CompilerConfig
	timeout  time.Duration

	batchSize     int
	retryAttempts uint

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithSolr configures the client to query a Solr core.
func WithSolr(baseURL, core string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverSolr
		c.solrURL = baseURL
		c.solrCore = core
	})
}

// WithHTTPClient overrides the HTTP client used for Solr.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithMemoryFixture runs the embedded engine over a YAML or JSON catalog file.
func WithMemoryFixture(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.fixturePath = path
	})
}

// WithMemoryEngine runs the embedded engine seeded with docs. An empty
// engine is valid; documents can be added later with Index.
func WithMemoryEngine(docs ...Document) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.fixturePath = ""
		c.documents = docs
	})
}

// WithCompilerConfig overrides highlight markers, price buckets and
// autocomplete size.
func WithCompilerConfig(cfg searchrepo.CompilerConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.compiler = &cfg
	})
}

// WithTimeout bounds every engine call. Default: 3s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithIndexing tunes batch size and per-batch retry attempts for Index.
// Defaults: 100 documents, 3 attempts.
func WithIndexing(batchSize int, attempts uint) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = batchSize
		c.retryAttempts = attempts
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
