package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/product"
)

func TestLoadPrices_Fixture(t *testing.T) {
	prices, err := LoadPrices("../../../testdata/prices.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, prices)
	assert.Equal(t, "WD-OAK-168", prices[0].SKU)
	assert.InDelta(t, 39.98, prices[0].Amount, 0.0001)
	assert.Equal(t, "USD", prices[0].Currency)
	assert.Equal(t, 35, prices[0].Stock)
}

func TestParsePrices(t *testing.T) {
	list, err := ParsePrices([]byte(`[{"sku": "A", "amount": 1.5, "stock": 2}]`))
	require.NoError(t, err)
	assert.Equal(t, []product.Price{{SKU: "A", Amount: 1.5, Stock: 2}}, list)

	_, err = ParsePrices([]byte("prices:\n  - amount: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing sku")

	_, err = ParsePrices([]byte("prices: 12"))
	require.Error(t, err)

	_, err = LoadPrices("does-not-exist.yaml")
	require.Error(t, err)
}

func TestSeed_Memory(t *testing.T) {
	m := NewMemory()
	var seen []int
	n, err := Seed(context.Background(), m, []product.Price{
		{SKU: "A", Amount: 1},
		{SKU: "B", Amount: 2},
	}, func(done int) { seen = append(seen, done) })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, 2}, seen)

	got, err := m.Prices(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSeed_StopsAtFirstFailure(t *testing.T) {
	var keys []string
	var ttls []time.Duration
	s := &mockStore{
		hsetFn: func(_ context.Context, key string, _ map[string]string) error {
			keys = append(keys, key)
			if key == "storefront:price:BAD" {
				return errors.New("READONLY replica")
			}
			return nil
		},
		expireFn: func(_ context.Context, _ string, ttl time.Duration) error {
			ttls = append(ttls, ttl)
			return nil
		},
	}

	n, err := Seed(context.Background(), New(s).WithTTL(time.Minute), []product.Price{
		{SKU: "OK"}, {SKU: "BAD"}, {SKU: "NEVER"},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed BAD")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"storefront:price:OK", "storefront:price:BAD"}, keys)
	assert.Equal(t, []time.Duration{time.Minute}, ttls)

	_, err = Seed(context.Background(), NewMemory(), []product.Price{{}}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}
