package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// Console implementa ports.Reporter escribiendo las tablas del
// forecast a un writer (stdout en producción, buffer en tests).
type Console struct {
	out     io.Writer
	table   bool // pivots completos además del resumen
	verbose bool // detalle evento por evento
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(table, verbose bool) *Console {
	return &Console{out: os.Stdout, table: table, verbose: verbose}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, table, verbose bool) *Console {
	return &Console{out: w, table: table, verbose: verbose}
}

// Report imprime el resultado de una corrida: resumen siempre, pivots
// solo en modo tabla.
func (c *Console) Report(_ context.Context, result domain.RunResult) error {
	now := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(c.out, "\n[%s] forecast %s\n", now, result.RunID)

	c.printProcessing(result.Processing)
	c.printSummary(result.Summary)

	if c.table {
		c.printForecastTable(result.Forecast)
		c.printCostOfSale(result.CostOfSale)
	}
	if c.verbose {
		c.printEvents(result.Events)
	}
	return nil
}

// printProcessing imprime el resumen de limpieza y validación.
func (c *Console) printProcessing(p domain.ProcessingSummary) {
	fmt.Fprintf(c.out, "\n=== PROCESAMIENTO ===\n")
	fmt.Fprintf(c.out, "  Registros:         %d originales → %d válidos (%.1f%%)\n",
		p.OriginalRecords, p.ValidRecords, p.SuccessRate*100)
	fmt.Fprintf(c.out, "  Excluidos al 100%%: %d\n", p.Excluded100Pct)
	fmt.Fprintf(c.out, "  Lead time ajustado al mínimo: %d filas\n", p.LeadTimeAdjusted)
	fmt.Fprintf(c.out, "  Fechas pasadas corregidas:    %d filas\n", p.PastDatesCorrected)

	if p.Ingest.SummaryRowsCut > 0 {
		fmt.Fprintf(c.out, "  Filas de totales removidas:   %d\n", p.Ingest.SummaryRowsCut)
	}
	if p.Ingest.HeaderRow > 0 {
		fmt.Fprintf(c.out, "  Header detectado en fila %d (score %.2f)\n",
			p.Ingest.HeaderRow+1, p.Ingest.HeaderScore)
	}

	if len(p.LeadTimeSources) > 0 {
		fmt.Fprintf(c.out, "  Fuentes de lead time:     %s\n", formatSources(p.LeadTimeSources))
	}
	if len(p.PaymentTermsSources) > 0 {
		fmt.Fprintf(c.out, "  Fuentes de payment terms: %s\n", formatSources(p.PaymentTermsSources))
	}
}

// printSummary imprime el resumen ejecutivo.
func (c *Console) printSummary(s domain.ForecastSummary) {
	fmt.Fprintf(c.out, "\n=== RESUMEN EJECUTIVO ===\n")
	fmt.Fprintf(c.out, "  Forecast ajustado: $%s\n", formatAmount(s.TotalAdjusted))
	fmt.Fprintf(c.out, "  Oportunidades:     %d (%d eventos de facturación)\n",
		s.TotalOpportunities, s.TotalEvents)
	if !s.StartDate.IsZero() {
		fmt.Fprintf(c.out, "  Horizonte:         %s a %s\n",
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"))
	}

	if len(s.BUDistribution) > 0 {
		fmt.Fprintf(c.out, "\n  Por BU:\n")
		for _, bu := range sortedKeys(s.BUDistribution) {
			fmt.Fprintf(c.out, "    %-4s $%s\n", bu, formatAmount(s.BUDistribution[bu]))
		}
	}
}

// printForecastTable imprime el pivot mensual de facturación.
func (c *Console) printForecastTable(t domain.ForecastTable) {
	if len(t.Rows) == 0 {
		fmt.Fprintf(c.out, "\n  Sin eventos de facturación que mostrar.\n")
		return
	}

	fmt.Fprintf(c.out, "\n=== FORECAST MENSUAL (montos ajustados) ===\n")

	headers := append([]string{"Proyecto", "BU", "Empresa"}, t.Months...)
	headers = append(headers, "Total")

	table := tablewriter.NewWriter(c.out)
	table.Header(toAny(headers)...)

	for _, row := range t.Rows {
		cells := []string{truncate(row.Project, 38), row.BU, row.Company}
		total := 0.0
		for _, m := range t.Months {
			v := row.Monthly[m]
			total += v
			cells = append(cells, formatCell(v))
		}
		cells = append(cells, formatAmount(total))
		table.Append(toAny(cells)...)
	}

	totals := []string{"TOTAL", "", ""}
	grand := 0.0
	for _, m := range t.Months {
		v := t.MonthlyTotals[m]
		grand += v
		totals = append(totals, formatAmount(v))
	}
	totals = append(totals, formatAmount(grand))
	table.Append(toAny(totals)...)

	table.Render()
}

// printCostOfSale imprime la tabla de costo de venta. El costo de cada
// proyecto aparece en un solo mes: el de su último cobro.
func (c *Console) printCostOfSale(t domain.CostOfSaleTable) {
	if len(t.Rows) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n=== COSTO DE VENTA ===\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("Proyecto", "BU", "Empresa", "Monto", "Margen", "Costo", "Mes")

	for _, row := range t.Rows {
		table.Append(
			truncate(row.Project, 38),
			row.BU,
			row.Company,
			formatAmount(row.AmountTotal),
			formatAmount(row.GrossMargin),
			formatAmount(row.CostOfSale),
			row.Month,
		)
	}
	table.Append("TOTAL", "", "",
		formatAmount(t.TotalAmount),
		formatAmount(t.TotalGrossMargin),
		formatAmount(t.TotalCostOfSale),
		"")
	table.Render()
}

// printEvents imprime cada evento individual (solo en modo verbose).
func (c *Console) printEvents(events []domain.BillingEvent) {
	fmt.Fprintf(c.out, "\n=== EVENTOS (%d) ===\n", len(events))

	table := tablewriter.NewWriter(c.out)
	table.Header("Proyecto", "BU", "Etapa", "Fecha", "Monto", "Ajustado", "Prob")

	for _, ev := range events {
		table.Append(
			truncate(ev.OpportunityName, 38),
			string(ev.BU),
			string(ev.Stage),
			ev.Date.Format("2006-01-02"),
			formatAmount(ev.Amount),
			formatAmount(ev.AmountAdjusted),
			fmt.Sprintf("%.0f%%", ev.Probability*100),
		)
	}
	table.Render()
}

// --- helpers ---

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatCell(v float64) string {
	if v == 0 {
		return "-"
	}
	return formatAmount(v)
}

func formatSources(m map[string]int) string {
	s := ""
	for i, k := range sortedIntKeys(m) {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s:%d", k, m[k])
	}
	return s
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncate corta a maxLen runas, no bytes: los nombres traen acentos.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
