package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Opportunity Name", "opportunity name"},
		{"  Probability (%)  ", "probability"},
		{"LEAD_TIME", "lead_time"},
		{"Fecha   Cierre", "fecha cierre"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.out, normalizeText(tc.in), "in=%q", tc.in)
	}
}

func TestFindMatch_Prioridades(t *testing.T) {
	// Exacto normalizado gana.
	got, ok := findMatch(domain.ColAmount, []string{"Notes", "amount", "Extra"})
	assert.True(t, ok)
	assert.Equal(t, "amount", got)

	// Alias conocido.
	got, ok = findMatch(domain.ColAmount, []string{"Notes", "Monto"})
	assert.True(t, ok)
	assert.Equal(t, "Monto", got)

	got, ok = findMatch(domain.ColPaidInAdvance, []string{"Calculated PIA"})
	assert.True(t, ok)
	assert.Equal(t, "Calculated PIA", got)

	// Substring con nombres largos.
	got, ok = findMatch(domain.ColCloseDate, []string{"Close Date (est)"})
	assert.True(t, ok)
	assert.Equal(t, "Close Date (est)", got)

	// Sin match.
	_, ok = findMatch(domain.ColAmount, []string{"Notes", "Owner"})
	assert.False(t, ok)
}

func TestFindMatch_GuardDeLongitud(t *testing.T) {
	// "BU" es corto: el nivel substring no aplica, solo exacto/alias.
	// Evita que "BU" haga match con cualquier columna que lo contenga.
	got, ok := findMatch(domain.ColBU, []string{"Business Unit"})
	assert.True(t, ok) // por alias, no por substring
	assert.Equal(t, "Business Unit", got)

	_, ok = findMatch(domain.ColBU, []string{"Bumper Stock"})
	assert.False(t, ok)
}

func TestScoreHeaderRow(t *testing.T) {
	full := []string{
		"Opportunity Name", "BU", "Amount", "Close Date",
		"Lead Time", "Payment Terms", "Probability (%)", "Paid in Advance",
	}
	assert.GreaterOrEqual(t, scoreHeaderRow(full), 0.8)

	// Fila de datos: casi nada matchea.
	data := []string{"Proyecto X", "ICT", "50000", "15/08/2026", "8", "NET 30", "0.5", "0"}
	assert.Less(t, scoreHeaderRow(data), 0.5)

	// Fila de título.
	assert.Less(t, scoreHeaderRow([]string{"Reporte Q3"}), 0.2)
	assert.Zero(t, scoreHeaderRow(nil))

	// Los blancos penalizan.
	blanks := make([]string, 12)
	padded := append(append([]string(nil), full...), blanks...)
	assert.Less(t, scoreHeaderRow(padded), scoreHeaderRow(full))
}

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "Probability (%)", cleanHeader("Probability (%)  ↑"))
	assert.Equal(t, "Amount", cleanHeader("  Amount ▲ "))
	assert.Equal(t, "", cleanHeader("  ↓  "))
}
