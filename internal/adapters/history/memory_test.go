package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
	"github.com/angel88c/rolling-forecast-sub000/internal/ports"
)

// Ambas implementaciones cumplen el mismo contrato.
var (
	_ ports.HistoryStore = (*SQLiteStore)(nil)
	_ ports.HistoryStore = (*MemoryStore)(nil)
)

func TestMemoryStore_Contrato(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	date := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	n, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 30", 50_000, 8, date),
		project("Cliente A", "P1", "NET 45", 55_000, 10, date), // upsert misma llave
		{ProjectName: "sin cliente"},                           // ignorado
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n) // el tercero no cuenta

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProjects)
	assert.Equal(t, 1, stats.UniqueClients)

	terms, ok, err := store.PaymentTerms(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NET 45", terms) // last-write-wins

	avg, ok, err := store.AverageLeadTime(ctx, "Cliente A", 50_000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, avg)

	_, ok, err = store.AverageLeadTime(ctx, "Desconocido", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	h, ok, err := store.ClientHistory(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, h.ProjectCount)
	assert.Equal(t, date, h.LastProjectDate)

	require.NoError(t, store.SetClientDefaults(ctx, domain.ClientDefaults{
		ClientName:      "Cliente A",
		DefaultLeadTime: 12,
	}))
	d, ok, err := store.ClientDefaults(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.0, d.DefaultLeadTime)

	assert.NoError(t, store.Close())
}

func TestMemoryStore_EmpateDeTerminosPorFecha(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 15", 10_000, 6, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		project("Cliente A", "P2", "NET 60", 10_000, 6, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	terms, ok, err := store.PaymentTerms(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NET 60", terms)
}
