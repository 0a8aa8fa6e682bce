package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/product"
)

// Memory is an in-process pricing repository for local runs and tests.
type Memory struct {
	mu     sync.RWMutex
	prices map[string]product.Price
}

// NewMemory creates a memory repository seeded with prices.
func NewMemory(prices ...product.Price) *Memory {
	m := &Memory{prices: make(map[string]product.Price, len(prices))}
	for _, p := range prices {
		m.prices[p.SKU] = p
	}
	return m
}

// Prices returns the known records among skus.
func (m *Memory) Prices(ctx context.Context, skus []string) (map[string]product.Price, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]product.Price, len(skus))
	for _, sku := range skus {
		if p, ok := m.prices[sku]; ok {
			out[sku] = p
		}
	}
	return out, nil
}

// Put stores a record.
func (m *Memory) Put(_ context.Context, p product.Price) error {
	if p.SKU == "" {
		return fmt.Errorf("sku is required: %w", domain.ErrInvalidRequest)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.prices[p.SKU] = p
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
