package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/buildy-mcbuild/storefront/internal/db/redis"
	"github.com/buildy-mcbuild/storefront/internal/domain"
	"github.com/buildy-mcbuild/storefront/internal/domain/product"
)

func TestRepo_Prices(t *testing.T) {
	s := &mockStore{
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			assert.Equal(t, []string{"storefront:price:OAK-1X6"}, keys)
			return []map[string]string{{
				"amount":     "18.40",
				"currency":   "USD",
				"stock":      "12",
				"updated_at": "2026-03-01T10:00:00Z",
			}}, nil
		},
	}

	got, err := New(s).Prices(context.Background(), []string{"OAK-1X6"})
	require.NoError(t, err)
	p := got["OAK-1X6"]
	assert.Equal(t, "OAK-1X6", p.SKU)
	assert.InDelta(t, 18.40, p.Amount, 0.0001)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, 12, p.Stock)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), p.UpdatedAt)
}

func TestRepo_Prices_Errors(t *testing.T) {
	boom := errors.New("connection reset")

	_, err := New(&mockStore{
		hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) { return nil, boom },
	}).Prices(context.Background(), []string{"X"})
	require.ErrorIs(t, err, boom)

	_, err = New(&mockStore{
		hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) {
			return []map[string]string{{"amount": "twelve"}}, nil
		},
	}).Prices(context.Background(), []string{"X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse amount")
}

func TestRepo_Prices_SkipsMissing(t *testing.T) {
	s := &mockStore{
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			assert.Equal(t, []string{"storefront:price:A", "storefront:price:B"}, keys)
			return []map[string]string{
				{"amount": "5", "currency": "USD"},
				{},
			}, nil
		},
	}

	got, err := New(s).Prices(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 5.0, got["A"].Amount, 0.0001)

	empty, err := New(s).Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepo_Put(t *testing.T) {
	var written map[string]string
	var expired time.Duration
	s := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			assert.Equal(t, "storefront:price:SAW-10", key)
			written = fields
			return nil
		},
		expireFn: func(_ context.Context, _ string, ttl time.Duration) error {
			expired = ttl
			return nil
		},
	}

	err := New(s).WithTTL(time.Hour).Put(context.Background(), product.Price{
		SKU: "SAW-10", Amount: 629, Currency: "USD", Stock: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "629.00", written["amount"])
	assert.Equal(t, "3", written["stock"])
	assert.NotEmpty(t, written["updated_at"])
	assert.Equal(t, time.Hour, expired)

	err = New(s).Put(context.Background(), product.Price{})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRepo_WithRedisStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("HGETALL", "storefront:price:BIT-SET"),
			mock.Match("HGETALL", "storefront:price:GONE"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
				"amount":   mock.RedisString("34.99"),
				"currency": mock.RedisString("USD"),
				"stock":    mock.RedisString("0"),
			})),
			mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})),
		})
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "storefront:price:BIT-SET"
		})).
		Return(mock.Result(mock.RedisInt64(4)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXPIRE", "storefront:price:BIT-SET", "3600")).
		Return(mock.Result(mock.RedisInt64(1)))

	repo := New(redis.NewStoreFromClient(c)).WithTTL(time.Hour)

	got, err := repo.Prices(context.Background(), []string{"BIT-SET", "GONE"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 34.99, got["BIT-SET"].Amount, 0.0001)
	assert.Zero(t, got["BIT-SET"].Stock)

	require.NoError(t, repo.Put(context.Background(), product.Price{SKU: "BIT-SET", Amount: 31.5, Currency: "USD"}))
}

func TestMemory(t *testing.T) {
	m := NewMemory(product.Price{SKU: "A", Amount: 1, Currency: "USD"})

	require.NoError(t, m.Put(context.Background(), product.Price{SKU: "B", Amount: 2}))
	got, err := m.Prices(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.InDelta(t, 1.0, got["A"].Amount, 0.0001)
	assert.False(t, got["B"].UpdatedAt.IsZero())

	err = m.Put(context.Background(), product.Price{})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Prices(ctx, []string{"A"})
	require.ErrorIs(t, err, context.Canceled)
}
