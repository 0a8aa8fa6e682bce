package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported by Check.
const (
	ComponentSearch  = "search"
	ComponentPricing = "pricing"
)

const checkTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Source string
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	source  string
	search  Pinger
	pricing Pinger
}

// New creates a Service. source names the search engine; pricing can be nil.
func New(source string, search, pricing Pinger) *Service {
	return &Service{source: source, search: search, pricing: pricing}
}

// Check pings the search engine and, when configured, the pricing store.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	checks := map[string]CheckResult{
		ComponentSearch: ping(ctx, s.search),
	}
	if s.pricing != nil {
		checks[ComponentPricing] = ping(ctx, s.pricing)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Source: s.source, Checks: checks}
}

func ping(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
