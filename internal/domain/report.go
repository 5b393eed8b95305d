package domain

import "time"

// IngestReport describe cómo se interpretó el workbook.
type IngestReport struct {
	HeaderRow       int               // fila detectada como header (0-indexed)
	HeaderScore     float64           // score de la fila ganadora
	OriginalColumns []string          // headers tal como venían
	AppliedRenames  map[string]string // original → canónico
	MissingColumns  []string          // requeridas sin match (fatal si no vacío)
	SummaryRowsCut  int               // filas Total/Subtotal/Sum removidas
	PIANormalized   bool              // se convirtió PIA de porcentaje a monto
}

// ProcessingSummary resume el procesamiento de un archivo completo.
type ProcessingSummary struct {
	OriginalRecords int
	ValidRecords    int
	Excluded100Pct  int // oportunidades al 100% excluidas del forecast
	SuccessRate     float64

	BUDistribution      map[string]int
	CompanyDistribution map[string]int

	LeadTimeAdjusted   int // filas con lead time subido al mínimo
	PastDatesCorrected int // close dates movidas al mes actual

	// Conteos por fuente de completado (original/historical/estimated/default).
	LeadTimeSources     map[string]int
	PaymentTermsSources map[string]int

	Ingest IngestReport
}

// ForecastSummary es el resumen ejecutivo del forecast.
type ForecastSummary struct {
	TotalAdjusted      float64
	TotalOpportunities int
	TotalEvents        int
	StartDate          time.Time
	EndDate            time.Time

	BUDistribution      map[string]float64
	MonthlyDistribution map[string]float64
}

// ForecastRow es una fila del pivot (proyecto, BU) × meses.
type ForecastRow struct {
	Project string
	BU      string
	Company string
	Monthly map[string]float64
}

// ForecastTable es el pivot de facturación: una columna por mes
// presente en los eventos, ordenadas cronológicamente.
type ForecastTable struct {
	Months        []string
	Rows          []ForecastRow
	MonthlyTotals map[string]float64
}

// CostOfSaleRow es el costo de venta de un proyecto. El costo completo
// cae en un único mes: el del último evento de facturación.
type CostOfSaleRow struct {
	Project     string
	BU          string
	Company     string
	AmountTotal float64
	GrossMargin float64
	CostOfSale  float64
	Month       string // mes donde se coloca el costo
}

// CostOfSaleTable es el pivot de costo de venta.
type CostOfSaleTable struct {
	Months           []string
	Rows             []CostOfSaleRow
	MonthlyTotals    map[string]float64
	TotalAmount      float64
	TotalGrossMargin float64
	TotalCostOfSale  float64
}

// RunResult es el contrato de salida del pipeline: lo que consume la
// capa de presentación (consola aquí, dashboard en otros despliegues).
type RunResult struct {
	RunID string

	Opportunities []Opportunity
	Events        []BillingEvent

	Summary    ForecastSummary
	Forecast   ForecastTable
	CostOfSale CostOfSaleTable
	Processing ProcessingSummary
	Validation *ValidationResult
}
