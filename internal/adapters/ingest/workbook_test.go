package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

var canonicalHeader = []string{
	"Opportunity Name", "BU", "Amount", "Close Date",
	"Lead Time", "Payment Terms", "Probability (%)", "Paid in Advance",
}

func dataRow(name, bu, amount, pia string) []string {
	return []string{name, bu, amount, "15/08/2026", "8", "NET 30", "0.5", pia}
}

func TestFromGrid_HeaderEnFilaCero(t *testing.T) {
	grid := [][]string{
		canonicalHeader,
		dataRow("P1", "ICT", "50000", "0"),
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.Equal(t, 0, report.HeaderRow)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "P1", table.Cell(0, domain.ColOpportunityName))
	assert.Empty(t, report.MissingColumns)
}

func TestFromGrid_HeaderDesplazado(t *testing.T) {
	// Reportes exportados traen título y filas de filtro antes del header.
	grid := [][]string{
		{"Reporte de Oportunidades Q3"},
		{"Filtrado por: región"},
		{},
		canonicalHeader,
		dataRow("P1", "ICT", "50000", "0"),
		dataRow("P2", "FCT", "80000", "0"),
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.Equal(t, 3, report.HeaderRow)
	assert.GreaterOrEqual(t, report.HeaderScore, 0.8)
	assert.Equal(t, 2, table.Len())
}

func TestFromGrid_RenombraAlias(t *testing.T) {
	grid := [][]string{
		{"Nombre Proyecto", "Business Unit", "Monto", "Fecha Cierre",
			"Tiempo Entrega", "Terminos Pago", "Probabilidad", "Anticipo"},
		dataRow("P1", "ICT", "50000", "0"),
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.Equal(t, "P1", table.Cell(0, domain.ColOpportunityName))
	assert.Equal(t, "ICT", table.Cell(0, domain.ColBU))
	assert.Equal(t, "50000", table.Cell(0, domain.ColAmount))
	assert.NotEmpty(t, report.AppliedRenames)
}

func TestFromGrid_HeaderConGlifos(t *testing.T) {
	header := append([]string(nil), canonicalHeader...)
	header[6] = "Probability (%)  ↑"

	grid := [][]string{header, dataRow("P1", "ICT", "50000", "0")}
	table, _, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.True(t, table.HasColumn(domain.ColProbability))
	assert.Equal(t, "0.5", table.Cell(0, domain.ColProbability))
}

func TestFromGrid_ColumnasFaltantesEsFatal(t *testing.T) {
	grid := [][]string{
		{"Opportunity Name", "BU", "Amount"}, // faltan 5 requeridas
		{"P1", "ICT", "50000"},
	}

	_, report, err := New("", 20, 0).fromGrid(grid)

	require.Error(t, err)
	assert.Contains(t, report.MissingColumns, domain.ColCloseDate)
	assert.Contains(t, report.MissingColumns, domain.ColLeadTime)
	// El error lista los nombres exactos para que el usuario arregle su hoja.
	assert.Contains(t, err.Error(), domain.ColCloseDate)
}

func TestFromGrid_RemueveFilasDeTotales(t *testing.T) {
	grid := [][]string{
		canonicalHeader,
		dataRow("P1", "ICT", "50000", "0"),
		{"", "Subtotal", "130000", "", "", "", "", ""},
		dataRow("P2", "FCT", "80000", "0"),
		{"", "", "", "", "", "", "", ""}, // vacía
		{"Grand Total", "TOTAL", "130000", "", "", "", "", ""},
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 3, report.SummaryRowsCut)
	assert.Equal(t, "P1", table.Cell(0, domain.ColOpportunityName))
	assert.Equal(t, "P2", table.Cell(1, domain.ColOpportunityName))
}

func TestFromGrid_PIAFraccion(t *testing.T) {
	// PIA como fracción (max <= 1): se multiplica por Amount.
	grid := [][]string{
		canonicalHeader,
		dataRow("P1", "ICT", "50000", "0.2"),
		dataRow("P2", "ICT", "80000", "0.5"),
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.True(t, report.PIANormalized)
	assert.Equal(t, "10000.00", table.Cell(0, domain.ColPaidInAdvance))
	assert.Equal(t, "40000.00", table.Cell(1, domain.ColPaidInAdvance))
}

func TestFromGrid_PIAPorcentaje(t *testing.T) {
	// PIA como porcentaje (1 < max <= 100): se divide entre 100 primero.
	grid := [][]string{
		canonicalHeader,
		dataRow("P1", "ICT", "50000", "20"),
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.True(t, report.PIANormalized)
	assert.Equal(t, "10000.00", table.Cell(0, domain.ColPaidInAdvance))
}

func TestFromGrid_PIAAbsoluto(t *testing.T) {
	// Valores > 100 ya son montos: se dejan como están.
	grid := [][]string{
		canonicalHeader,
		dataRow("P1", "ICT", "50000", "15000"),
	}

	table, report, err := New("", 20, 0).fromGrid(grid)

	require.NoError(t, err)
	assert.False(t, report.PIANormalized)
	assert.Equal(t, "15000", table.Cell(0, domain.ColPaidInAdvance))
}
