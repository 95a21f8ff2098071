package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-paper-trader/internal/domain"
)

var tickBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tick(tokenID string, price string, at time.Time) *domain.PriceTick {
	return &domain.PriceTick{
		TokenID:    tokenID,
		Symbol:     "TKN",
		Price:      decimal.RequireFromString(price),
		ObservedAt: at,
	}
}

func TestPriceTickStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)
	ctx := context.Background()

	// Empty insert is a no-op
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.PriceTick{
		tick("mint-1", "0.00012345", tickBase),
	})
	require.NoError(t, err)

	got, err := store.GetByToken(ctx, "mint-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mint-1", got[0].TokenID)
	assert.Equal(t, "TKN", got[0].Symbol)
	assert.True(t, decimal.RequireFromString("0.00012345").Equal(got[0].Price),
		"price = %s", got[0].Price)
	assert.True(t, tickBase.Equal(got[0].ObservedAt), "observed_at = %s", got[0].ObservedAt)
}

func TestPriceTickStore_GetByToken_OrdersByTime(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)
	ctx := context.Background()

	// Inserted out of order across two tokens
	err := store.InsertBulk(ctx, []*domain.PriceTick{
		tick("mint-1", "1.10", tickBase.Add(2*time.Minute)),
		tick("mint-2", "5.00", tickBase),
		tick("mint-1", "1.00", tickBase),
		tick("mint-1", "1.05", tickBase.Add(time.Minute)),
	})
	require.NoError(t, err)

	got, err := store.GetByToken(ctx, "mint-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, decimal.RequireFromString("1.00").Equal(got[0].Price))
	assert.True(t, decimal.RequireFromString("1.05").Equal(got[1].Price))
	assert.True(t, decimal.RequireFromString("1.10").Equal(got[2].Price))
}

func TestPriceTickStore_GetByToken_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)

	got, err := store.GetByToken(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceTickStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTickStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PriceTick{
		tick("mint-1", "1.00", tickBase),
		tick("mint-1", "1.05", tickBase.Add(time.Minute)),
		tick("mint-1", "1.10", tickBase.Add(2*time.Minute)),
		tick("mint-2", "5.00", tickBase.Add(time.Minute)),
	})
	require.NoError(t, err)

	// Bounds are inclusive
	got, err := store.GetByTimeRange(ctx, "mint-1", tickBase, tickBase.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, decimal.RequireFromString("1.00").Equal(got[0].Price))
	assert.True(t, decimal.RequireFromString("1.05").Equal(got[1].Price))

	// Window with no ticks
	got, err = store.GetByTimeRange(ctx, "mint-1", tickBase.Add(time.Hour), tickBase.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}
