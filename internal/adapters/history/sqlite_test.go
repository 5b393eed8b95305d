package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func project(client, name, terms string, amount, lead float64, closeDate time.Time) domain.HistoricalProject {
	return domain.HistoricalProject{
		ClientName:   client,
		ProjectName:  name,
		BU:           "ICT",
		Amount:       amount,
		CloseDate:    closeDate,
		LeadTime:     lead,
		PaymentTerms: terms,
		Probability:  0.5,
	}
}

func TestSQLiteStore_AddProjects_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	n, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 30", 50_000, 8, date),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Mismo (cliente, proyecto, fecha): reemplaza, no duplica.
	_, err = store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 45", 60_000, 10, date),
	})
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProjects)

	// Last-write-wins en los campos.
	avg, ok, err := store.AverageLeadTime(ctx, "Cliente A", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, avg)
}

func TestSQLiteStore_AddProjects_IgnoraSinCliente(t *testing.T) {
	store := newTestStore(t)
	n, err := store.AddProjects(context.Background(), []domain.HistoricalProject{
		{ProjectName: "Sin cliente", Amount: 100},
	})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_PaymentTerms_ModoYDesempate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := func(m time.Month) time.Time { return time.Date(2025, m, 1, 0, 0, 0, 0, time.UTC) }
	_, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 30", 10_000, 6, d(1)),
		project("Cliente A", "P2", "NET 30", 10_000, 6, d(2)),
		project("Cliente A", "P3", "NET 45", 10_000, 6, d(3)),
	})
	require.NoError(t, err)

	terms, ok, err := store.PaymentTerms(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NET 30", terms) // 2 vs 1

	// Empate 1-1: gana el más reciente.
	_, err = store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente B", "P1", "NET 15", 10_000, 6, d(1)),
		project("Cliente B", "P2", "NET 60", 10_000, 6, d(6)),
	})
	require.NoError(t, err)

	terms, ok, err = store.PaymentTerms(ctx, "Cliente B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NET 60", terms)
}

func TestSQLiteStore_PaymentTerms_Miss(t *testing.T) {
	store := newTestStore(t)
	_, ok, err := store.PaymentTerms(context.Background(), "Desconocido")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_AverageLeadTime_BandaDeMonto(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "Chico", "NET 30", 10_000, 4, date),
		project("Cliente A", "Mediano", "NET 30", 100_000, 12, date.AddDate(0, 1, 0)),
		project("Cliente A", "Grande", "NET 30", 1_000_000, 30, date.AddDate(0, 2, 0)),
	})
	require.NoError(t, err)

	// Banda ±50% alrededor de 100k: solo el proyecto mediano entra.
	avg, ok, err := store.AverageLeadTime(ctx, "Cliente A", 100_000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.0, avg)

	// Sin monto: promedia todo.
	avg, ok, err = store.AverageLeadTime(ctx, "Cliente A", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, (4.0+12+30)/3, avg, 0.001)

	// Monto sin vecinos en la banda.
	_, ok, err = store.AverageLeadTime(ctx, "Cliente A", 300_000)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ClientHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 30", 40_000, 8, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		project("Cliente A", "P2", "NET 30", 60_000, 12, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	h, ok, err := store.ClientHistory(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, h.ProjectCount)
	assert.Equal(t, "NET 30", h.MostCommonTerms)
	assert.InDelta(t, 10.0, h.AverageLeadTime, 0.001)
	assert.InDelta(t, 50_000.0, h.AverageAmount, 0.001)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), h.LastProjectDate)

	_, ok, err = store.ClientHistory(ctx, "Desconocido")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ClientDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.ClientDefaults(ctx, "Cliente A")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetClientDefaults(ctx, domain.ClientDefaults{
		ClientName:          "Cliente A",
		DefaultPaymentTerms: "NET 60",
		DefaultLeadTime:     14,
		Notes:               "negociado 2025",
	}))

	d, ok, err := store.ClientDefaults(ctx, "Cliente A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "NET 60", d.DefaultPaymentTerms)
	assert.Equal(t, 14.0, d.DefaultLeadTime)

	// Upsert reemplaza.
	require.NoError(t, store.SetClientDefaults(ctx, domain.ClientDefaults{
		ClientName:      "Cliente A",
		DefaultLeadTime: 16,
	}))
	d, _, err = store.ClientDefaults(ctx, "Cliente A")
	require.NoError(t, err)
	assert.Equal(t, 16.0, d.DefaultLeadTime)

	assert.Error(t, store.SetClientDefaults(ctx, domain.ClientDefaults{}))
}

func TestSQLiteStore_Stats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.AddProjects(ctx, []domain.HistoricalProject{
		project("Cliente A", "P1", "NET 30", 10_000, 8, date),
		project("Cliente A", "P2", "", 10_000, 0, date.AddDate(0, 1, 0)),
		project("Cliente B", "P1", "NET 45", 10_000, 6, date),
	})
	require.NoError(t, err)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalProjects)
	assert.Equal(t, 2, st.UniqueClients)
	assert.Equal(t, 2, st.WithPaymentTerms)
	assert.Equal(t, 2, st.WithLeadTime)
}
