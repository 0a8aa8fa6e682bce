package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/search/request"
	"github.com/buildy-mcbuild/storefront/internal/logger"
	cataloguc "github.com/buildy-mcbuild/storefront/internal/usecase/catalog"
	healthuc "github.com/buildy-mcbuild/storefront/internal/usecase/health"
	searchuc "github.com/buildy-mcbuild/storefront/internal/usecase/search"
)

// maxSuggestBody caps the autocomplete request body.
const maxSuggestBody = 4 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, source string, err error) bool

// Server serves the storefront search API and the B4F gateway routes.
type Server struct {
	search        *searchuc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		unavailableHandler,
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, CodeProductNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest),
	}
	return s
}

// Register mounts all routes on r. B4F routes require a Bearer key when apiKeys is non-empty.
func (s *Server) Register(r chi.Router, apiKeys []string) {
	r.Get("/search", s.Search)
	r.Post("/search", s.Autocomplete)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/b4f", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiKeys))
		r.Get("/products", s.ListProducts)
		r.Get("/products/{id}", s.GetProduct)
	})
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req := request.FromQuery(r.URL.Query())
	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, s.search.Source(), err)
		return
	}
	writeJSON(w, http.StatusOK, NewSearchResponse(s.search.Source(), resp))
}

// Autocomplete handles POST /search. It always answers 200; a malformed body
// is treated as an empty prefix.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	var body SuggestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSuggestBody)).Decode(&body); err != nil {
		logger.FromContext(r.Context()).Debug("autocomplete body ignored", zap.Error(err))
	}
	res := s.search.Suggest(r.Context(), body.Q)
	writeJSON(w, http.StatusOK, NewSuggestResponse(s.search.Source(), res))
}

// ListProducts handles GET /b4f/products.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	req := request.FromQuery(r.URL.Query())
	resp, err := s.catalog.Listing(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, s.catalog.Source(), err)
		return
	}
	writeJSON(w, http.StatusOK, NewSearchResponse(s.catalog.Source(), resp))
}

// GetProduct handles GET /b4f/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	hit, err := s.catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, s.catalog.Source(), err)
		return
	}
	writeJSON(w, http.StatusOK, ProductResponse{Source: s.catalog.Source(), Product: productToDTO(&hit)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, source, code, message string) {
	writeJSON(w, status, ErrorResponse{Source: source, Error: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSearchUnavailable,
		domain.ErrProductNotFound,
		domain.ErrInvalidRequest,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// unavailableHandler answers 503 with the upstream diagnostic.
func unavailableHandler(w http.ResponseWriter, source string, err error) bool {
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		return false
	}
	msg := safeDomainMessage(err)
	var ue *domain.UnavailableError
	if errors.As(err, &ue) {
		msg = ue.Diagnostic()
	}
	writeError(w, http.StatusServiceUnavailable, source, CodeSearchUnavailable, msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, source string, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, source, code, safeDomainMessage(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, source string, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, source, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, source, CodeInternal, "internal error")
}
