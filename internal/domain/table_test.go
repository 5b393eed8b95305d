package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_CellAndSetCell(t *testing.T) {
	table := NewTable(
		[]string{ColOpportunityName, ColAmount},
		[][]string{{"P1", "1000"}, {"P2"}},
	)

	assert.Equal(t, "P1", table.Cell(0, ColOpportunityName))
	assert.Equal(t, "1000", table.Cell(0, ColAmount))

	// Fila corta y columna inexistente devuelven vacío, no panic.
	assert.Equal(t, "", table.Cell(1, ColAmount))
	assert.Equal(t, "", table.Cell(0, ColBU))
	assert.Equal(t, "", table.Cell(99, ColAmount))

	// SetCell extiende la fila corta.
	table.SetCell(1, ColAmount, "2000")
	assert.Equal(t, "2000", table.Cell(1, ColAmount))
}

func TestTable_AddColumn(t *testing.T) {
	table := NewTable([]string{ColOpportunityName}, [][]string{{"P1"}})

	require.False(t, table.HasColumn(ColRegion))
	table.AddColumn(ColRegion)
	require.True(t, table.HasColumn(ColRegion))

	table.SetCell(0, ColRegion, "US")
	assert.Equal(t, "US", table.Cell(0, ColRegion))

	// Idempotente.
	table.AddColumn(ColRegion)
	assert.Len(t, table.Columns, 2)
}

func TestTable_CloneNoComparteMemoria(t *testing.T) {
	table := NewTable([]string{ColAmount}, [][]string{{"1000"}})
	clone := table.Clone()

	clone.SetCell(0, ColAmount, "9999")
	assert.Equal(t, "1000", table.Cell(0, ColAmount))
	assert.Equal(t, "9999", clone.Cell(0, ColAmount))
}
