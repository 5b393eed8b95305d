package pipeline

// cleaner.go — etapas de limpieza del funnel, en orden estricto:
//
//  1. limpiar glifos y espacios en la columna BU
//  2. forward-fill de probabilidad y BU (la fuente los trae solo en la
//     primera fila de cada grupo visual)
//  3. clamp del lead time al mínimo configurado
//  4. parseo de fechas + corrección de meses pasados
//  5. coerción numérica (Amount, Lead Time, PIA, Gross Margin)
//  6. región → empresa (US→LLC, MX→SAPI)
//  7. completado de faltantes contra el histórico de clientes
//  8. filtro final → Opportunity tipadas
//  9. realimentar el histórico con las filas válidas
//
// Cada etapa trabaja sobre su propia copia de los datos; la tabla de
// entrada nunca se muta.

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
	"github.com/angel88c/rolling-forecast-sub000/internal/ports"
)

// CleanStats acumula lo que pasó durante la limpieza, para el resumen
// de procesamiento.
type CleanStats struct {
	OriginalRecords    int
	ValidRecords       int
	Excluded100Pct     int
	LeadTimeAdjusted   int
	PastDatesCorrected int

	LeadTimeSources     map[string]int
	PaymentTermsSources map[string]int
	BUDistribution      map[string]int
	CompanyDistribution map[string]int
}

// Cleaner normaliza la tabla cruda y la convierte en oportunidades
// tipadas, consultando el histórico para los campos faltantes.
type Cleaner struct {
	rules domain.BusinessRules
	store ports.HistoryStore

	now func() time.Time // inyectable en tests
}

// NewCleaner crea un Cleaner. store puede ser nil: el completado cae
// directo a los defaults por monto.
func NewCleaner(rules domain.BusinessRules, store ports.HistoryStore) *Cleaner {
	return &Cleaner{rules: rules, store: store, now: time.Now}
}

// row es el estado de una fila a través de las etapas de limpieza.
// Los punteros distinguen "ausente" de "cero": una fila sin
// probabilidad antes del primer valor del grupo queda nil y se excluye
// al final, no se defaultea.
type row struct {
	name    string
	buRaw   string
	region  string
	terms   string
	company string

	probability *float64
	amount      *float64
	leadTime    *float64
	pia         float64
	margin      float64

	closeDate   time.Time
	invoiceDate time.Time
	satDate     time.Time

	leadTimeOriginal float64
	clamped          bool
	dateCorrected    bool
	ltSource         string
	ptSource         string
}

// Clean corre todas las etapas y devuelve las oportunidades válidas.
func (c *Cleaner) Clean(ctx context.Context, t *domain.Table) ([]domain.Opportunity, CleanStats, error) {
	stats := CleanStats{
		OriginalRecords:     t.Len(),
		LeadTimeSources:     map[string]int{},
		PaymentTermsSources: map[string]int{},
		BUDistribution:      map[string]int{},
		CompanyDistribution: map[string]int{},
	}

	work := c.prepare(t)
	rows := c.parseRows(work, &stats)
	c.completeMissing(ctx, rows, &stats)

	opportunities := c.buildOpportunities(rows, &stats)
	stats.ValidRecords = len(opportunities)

	// Etapa 9: el histórico se entrena con cada archivo procesado.
	c.feedStore(ctx, opportunities)

	slog.Info("limpieza completada",
		"original", stats.OriginalRecords,
		"valid", stats.ValidRecords,
		"excluded_100pct", stats.Excluded100Pct,
		"lead_time_adjusted", stats.LeadTimeAdjusted,
		"past_dates_corrected", stats.PastDatesCorrected,
	)
	return opportunities, stats, nil
}

// prepare aplica las etapas 1-2 sobre una copia: glifos fuera y
// forward-fill de los agrupadores (probabilidad y BU vienen solo en la
// primera fila de cada grupo visual de la hoja). La validación corre
// sobre esta misma vista, para no marcar como inválidas filas que
// heredan su grupo.
func (c *Cleaner) prepare(t *domain.Table) *domain.Table {
	work := t.Clone()
	cleanBUColumn(work)
	fillColumn(work, domain.ColProbability)
	fillColumn(work, domain.ColBU)
	return work
}

// cleanBUColumn quita glifos direccionales y colapsa espacios en BU.
func cleanBUColumn(t *domain.Table) {
	if !t.HasColumn(domain.ColBU) {
		return
	}
	replacer := strings.NewReplacer("↑", "", "↓", "", "→", "", "←", "", "⬆", "", "⬇", "")
	for i := 0; i < t.Len(); i++ {
		v := replacer.Replace(t.Cell(i, domain.ColBU))
		t.SetCell(i, domain.ColBU, strings.Join(strings.Fields(v), " "))
	}
}

// fillColumn es el forward-fill clásico: cada celda vacía toma el
// valor no-vacío más cercano hacia arriba. Las filas antes del primer
// valor quedan vacías a propósito: no tienen verdad de origen y el
// filtro final las excluye.
func fillColumn(t *domain.Table, column string) {
	if !t.HasColumn(column) {
		return
	}
	last := ""
	for i := 0; i < t.Len(); i++ {
		v := strings.TrimSpace(t.Cell(i, column))
		if v != "" {
			last = v
			continue
		}
		if last != "" {
			t.SetCell(i, column, last)
		}
	}
}

// parseRows ejecuta las etapas 3-6 por fila.
func (c *Cleaner) parseRows(t *domain.Table, stats *CleanStats) []*row {
	now := c.now()
	rows := make([]*row, 0, t.Len())

	for i := 0; i < t.Len(); i++ {
		r := &row{
			name:   strings.TrimSpace(t.Cell(i, domain.ColOpportunityName)),
			buRaw:  strings.TrimSpace(t.Cell(i, domain.ColBU)),
			region: strings.TrimSpace(t.Cell(i, domain.ColRegion)),
			terms:  strings.TrimSpace(t.Cell(i, domain.ColPaymentTerms)),
		}

		if p, ok := domain.ParseNumber(t.Cell(i, domain.ColProbability)); ok {
			// La hoja puede traer 0.6 o 60: normalizar a fracción.
			if p > 1 {
				p /= 100
			}
			r.probability = &p
		}
		if a, ok := domain.ParseNumber(t.Cell(i, domain.ColAmount)); ok {
			r.amount = &a
		}
		if lt, ok := domain.ParseNumber(t.Cell(i, domain.ColLeadTime)); ok {
			r.leadTimeOriginal = lt
			// Etapa 3: clamp al mínimo. Solo valores positivos; un
			// lead time ausente se completa en la etapa 7.
			if lt > 0 && lt < c.rules.MinLeadTimeWeeks {
				lt = c.rules.MinLeadTimeWeeks
				r.clamped = true
				stats.LeadTimeAdjusted++
			}
			r.leadTime = &lt
		}
		if pia, ok := domain.ParseNumber(t.Cell(i, domain.ColPaidInAdvance)); ok {
			r.pia = pia
		}
		if gm, ok := domain.ParseNumber(t.Cell(i, domain.ColGrossMargin)); ok {
			r.margin = gm
		}

		// Etapa 4: fechas. Solo la close date recibe la corrección de
		// mes pasado; las fechas explícitas de factura/SAT se respetan.
		if d, ok := domain.ParseDate(t.Cell(i, domain.ColCloseDate)); ok {
			adjusted, corrected := adjustPastMonth(d, now)
			r.closeDate = adjusted
			r.dateCorrected = corrected
			if corrected {
				stats.PastDatesCorrected++
			}
		}
		if d, ok := domain.ParseDate(t.Cell(i, domain.ColInvoiceDate)); ok {
			r.invoiceDate = d
		}
		if d, ok := domain.ParseDate(t.Cell(i, domain.ColSATDate)); ok {
			r.satDate = d
		}

		// Etapa 6: la región viene SOLO de la columna Region; no se
		// infiere de ningún otro campo.
		r.company = classifyCompany(r.region)

		rows = append(rows, r)
	}
	return rows
}

// adjustPastMonth mueve fechas de meses estrictamente anteriores al
// actual al último día del mes actual. Fechas del mes corriente o
// futuras quedan intactas, sin importar el día.
func adjustPastMonth(d, now time.Time) (time.Time, bool) {
	if d.Year() > now.Year() || (d.Year() == now.Year() && d.Month() >= now.Month()) {
		return d, false
	}
	return domain.LastDayOfMonth(now), true
}

// classifyCompany mapea el código de región a la entidad que factura.
func classifyCompany(region string) string {
	r := strings.ToUpper(strings.TrimSpace(region))
	switch {
	case strings.HasPrefix(r, "US"):
		return domain.CompanyLLC
	case strings.HasPrefix(r, "MX"):
		return domain.CompanySAPI
	default:
		return domain.CompanyUnclassified
	}
}

// completeMissing es la etapa 7: completa lead time y payment terms
// faltantes desde el histórico del cliente, con fallback determinista.
func (c *Cleaner) completeMissing(ctx context.Context, rows []*row, stats *CleanStats) {
	for _, r := range rows {
		if r.name == "" {
			continue
		}
		client := domain.ExtractClientName(r.name)

		if r.leadTime == nil || *r.leadTime <= 0 {
			lt, source := c.resolveLeadTime(ctx, client, r)
			r.leadTime = &lt
			r.leadTimeOriginal = lt
			r.ltSource = source
		} else {
			r.ltSource = domain.SourceOriginal
		}

		if r.terms == "" {
			r.terms, r.ptSource = c.resolveTerms(ctx, client)
		} else {
			r.ptSource = domain.SourceOriginal
		}

		stats.LeadTimeSources[r.ltSource]++
		stats.PaymentTermsSources[r.ptSource]++
	}
}

// resolveLeadTime busca, en orden: override manual del cliente,
// promedio histórico de proyectos de monto similar, tabla de defaults
// por monto.
func (c *Cleaner) resolveLeadTime(ctx context.Context, client string, r *row) (float64, string) {
	amount := 0.0
	if r.amount != nil {
		amount = *r.amount
	}

	if c.store != nil {
		if d, ok, err := c.store.ClientDefaults(ctx, client); err == nil && ok && d.DefaultLeadTime > 0 {
			return d.DefaultLeadTime, domain.SourceHistorical
		}
		if avg, ok, err := c.store.AverageLeadTime(ctx, client, amount); err == nil && ok {
			return avg, domain.SourceHistorical
		} else if err != nil {
			slog.Warn("lookup de lead time falló, usando estimación", "client", client, "err", err)
		}
	}
	return c.rules.EstimateLeadTime(amount), domain.SourceEstimated
}

// resolveTerms busca el término de pago: override manual, modo
// histórico del cliente, default configurado.
func (c *Cleaner) resolveTerms(ctx context.Context, client string) (string, string) {
	if c.store != nil {
		if d, ok, err := c.store.ClientDefaults(ctx, client); err == nil && ok && d.DefaultPaymentTerms != "" {
			return d.DefaultPaymentTerms, domain.SourceHistorical
		}
		if terms, ok, err := c.store.PaymentTerms(ctx, client); err == nil && ok {
			return terms, domain.SourceHistorical
		} else if err != nil {
			slog.Warn("lookup de payment terms falló, usando default", "client", client, "err", err)
		}
	}
	return c.rules.DefaultPaymentTerms, domain.SourceDefault
}

// buildOpportunities es la etapa 8: el filtro final. Una fila se
// convierte en Opportunity solo si tiene todos los campos requeridos y
// su probabilidad es estrictamente menor a 1.0 — las oportunidades
// seguras no se pronostican.
func (c *Cleaner) buildOpportunities(rows []*row, stats *CleanStats) []domain.Opportunity {
	var out []domain.Opportunity

	for _, r := range rows {
		if r.probability != nil && *r.probability >= 1.0 {
			stats.Excluded100Pct++
			continue
		}
		if !r.valid() {
			continue
		}

		bu, err := domain.ParseBusinessUnit(r.buRaw)
		if err != nil {
			slog.Debug("fila con BU no reconocida excluida", "name", r.name, "bu", r.buRaw)
			continue
		}

		opp, err := domain.NewOpportunity(r.name, bu, *r.amount, r.closeDate, *r.leadTime, *r.probability)
		if err != nil {
			slog.Warn("fila válida rechazada por invariante", "name", r.name, "err", err)
			continue
		}
		opp.LeadTimeOriginal = r.leadTimeOriginal
		opp.PaidInAdvance = r.pia
		opp.PaymentTerms = r.terms
		opp.Region = r.region
		opp.Company = r.company
		opp.GrossMargin = r.margin
		opp.InvoiceDate = r.invoiceDate
		opp.SATDate = r.satDate

		out = append(out, opp)
		stats.BUDistribution[string(bu)]++
		stats.CompanyDistribution[r.company]++
	}
	return out
}

// valid aplica las condiciones del filtro final (sin la exclusión por
// 100%, que se cuenta aparte).
func (r *row) valid() bool {
	if r.name == "" || strings.EqualFold(r.name, "nan") {
		return false
	}
	if r.buRaw == "" || strings.EqualFold(r.buRaw, "nan") {
		return false
	}
	if r.amount == nil || *r.amount <= 0 {
		return false
	}
	if r.leadTime == nil || *r.leadTime <= 0 {
		return false
	}
	if r.closeDate.IsZero() {
		return false
	}
	if r.probability == nil {
		return false
	}
	return true
}

// feedStore realimenta el histórico con las oportunidades válidas.
func (c *Cleaner) feedStore(ctx context.Context, opportunities []domain.Opportunity) {
	if c.store == nil || len(opportunities) == 0 {
		return
	}

	projects := make([]domain.HistoricalProject, 0, len(opportunities))
	for _, opp := range opportunities {
		projects = append(projects, domain.HistoricalProject{
			ClientName:    domain.ExtractClientName(opp.Name),
			ProjectName:   opp.Name,
			BU:            string(opp.BU),
			Amount:        opp.Amount,
			CloseDate:     opp.CloseDate,
			LeadTime:      opp.LeadTimeWeeks,
			PaymentTerms:  opp.PaymentTerms,
			Probability:   opp.Probability,
			PaidInAdvance: opp.PaidInAdvance,
		})
	}

	added, err := c.store.AddProjects(ctx, projects)
	if err != nil {
		slog.Warn("no se pudo realimentar el histórico", "err", err)
		return
	}
	slog.Debug("histórico actualizado", "records", added)
}
