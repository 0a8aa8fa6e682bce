package pricing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/product"
)

// KeyPrefix namespaces price hashes in Redis.
const KeyPrefix = "storefront:price:"

const (
	fieldAmount    = "amount"
	fieldCurrency  = "currency"
	fieldStock     = "stock"
	fieldUpdatedAt = "updated_at"
)

// store is the consumer interface for price hashes (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Repo reads live price and stock records from Redis hashes.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a Redis-backed pricing repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// WithTTL expires records written by Put after ttl. Zero keeps them forever.
func (r *Repo) WithTTL(ttl time.Duration) *Repo {
	r.ttl = ttl
	return r
}

// Prices fetches several SKUs in one round-trip. Missing SKUs are absent from the result.
func (r *Repo) Prices(ctx context.Context, skus []string) (map[string]product.Price, error) {
	if len(skus) == 0 {
		return map[string]product.Price{}, nil
	}

	keys := make([]string, len(skus))
	for i, sku := range skus {
		keys[i] = priceKey(sku)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall prices: %w", err)
	}

	out := make(map[string]product.Price, len(skus))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		p, err := priceFromHash(skus[i], m)
		if err != nil {
			return nil, err
		}
		out[skus[i]] = p
	}
	return out, nil
}

// Put stores a record, stamping UpdatedAt when unset.
func (r *Repo) Put(ctx context.Context, p product.Price) error {
	if p.SKU == "" {
		return fmt.Errorf("sku is required: %w", domain.ErrInvalidRequest)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	key := priceKey(p.SKU)
	if err := r.store.HSet(ctx, key, priceToHash(p)); err != nil {
		return fmt.Errorf("hset price %s: %w", p.SKU, err)
	}
	if err := r.store.Expire(ctx, key, r.ttl); err != nil {
		return fmt.Errorf("expire price %s: %w", p.SKU, err)
	}
	return nil
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("pricing store: %w", err)
	}
	return nil
}

func priceKey(sku string) string {
	return KeyPrefix + sku
}

func priceToHash(p product.Price) map[string]string {
	return map[string]string{
		fieldAmount:    decimal.NewFromFloat(p.Amount).StringFixed(2),
		fieldCurrency:  p.Currency,
		fieldStock:     strconv.Itoa(p.Stock),
		fieldUpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func priceFromHash(sku string, m map[string]string) (product.Price, error) {
	p := product.Price{SKU: sku, Currency: m[fieldCurrency]}

	amount, err := decimal.NewFromString(m[fieldAmount])
	if err != nil {
		return product.Price{}, fmt.Errorf("parse amount for %s: %w", sku, err)
	}
	p.Amount = amount.InexactFloat64()

	if raw, ok := m[fieldStock]; ok && raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return product.Price{}, fmt.Errorf("parse stock for %s: %w", sku, err)
		}
		p.Stock = stock
	}

	if raw, ok := m[fieldUpdatedAt]; ok && raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			p.UpdatedAt = ts
		}
	}

	return p, nil
}
