package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
	"github.com/angel88c/rolling-forecast-sub000/internal/forecast"
	"github.com/angel88c/rolling-forecast-sub000/internal/ports"
)

// Pipeline orquesta el procesamiento de un funnel: ingest → validación
// → limpieza → forecast → agregación → reporte. Cada corrida es
// independiente y produce un RunResult completo.
type Pipeline struct {
	rules    domain.BusinessRules
	source   ports.WorkbookSource
	store    ports.HistoryStore
	reporter ports.Reporter
	engine   *forecast.Engine
	cleaner  *Cleaner
}

// New crea el pipeline con sus dependencias. store y reporter pueden
// ser nil: sin store el completado usa solo defaults; sin reporter el
// resultado únicamente se devuelve al llamador.
func New(rules domain.BusinessRules, source ports.WorkbookSource, store ports.HistoryStore, reporter ports.Reporter) *Pipeline {
	return &Pipeline{
		rules:    rules,
		source:   source,
		store:    store,
		reporter: reporter,
		engine:   forecast.NewEngine(rules),
		cleaner:  NewCleaner(rules, store),
	}
}

// RunFile procesa un archivo de funnel de principio a fin.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*domain.RunResult, error) {
	runID := uuid.NewString()
	slog.Info("iniciando corrida de forecast", "run_id", runID, "file", path)

	table, ingest, err := p.source.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: leyendo workbook: %w", err)
	}

	result, err := p.run(ctx, runID, table, ingest)
	if err != nil {
		return nil, err
	}

	if p.reporter != nil {
		if err := p.reporter.Report(ctx, *result); err != nil {
			// El reporte es presentación: su falla no invalida la corrida.
			slog.Warn("reporte de resultados falló", "run_id", runID, "err", err)
		}
	}
	return result, nil
}

// run ejecuta las etapas posteriores al ingest sobre una tabla ya
// normalizada. Separado de RunFile para que los tests inyecten tablas
// sin tocar disco.
func (p *Pipeline) run(ctx context.Context, runID string, table *domain.Table, ingest domain.IngestReport) (*domain.RunResult, error) {
	// Validar sobre la vista preparada: los agrupadores ya propagados y
	// sin exigir los campos que el completado histórico resuelve.
	validation := ValidateTable(p.cleaner.prepare(table))
	if !validation.IsValid {
		return nil, fmt.Errorf("pipeline: archivo inválido: %v", validation.Errors)
	}
	for _, w := range validation.Warnings {
		slog.Warn("validación", "run_id", runID, "detail", w)
	}

	opportunities, stats, err := p.cleaner.Clean(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("pipeline: limpiando datos: %w", err)
	}
	if len(opportunities) == 0 {
		return nil, fmt.Errorf("pipeline: ninguna oportunidad válida después de la limpieza")
	}

	events := p.engine.Calculate(opportunities)

	result := &domain.RunResult{
		RunID:         runID,
		Opportunities: opportunities,
		Events:        events,
		Summary:       forecast.Summarize(events),
		Forecast:      forecast.BuildForecastTable(events),
		CostOfSale:    forecast.BuildCostOfSaleTable(events),
		Processing:    buildProcessingSummary(stats, ingest),
		Validation:    validation,
	}

	slog.Info("corrida completada",
		"run_id", runID,
		"opportunities", len(opportunities),
		"events", len(events),
		"total_adjusted", result.Summary.TotalAdjusted,
	)
	return result, nil
}

// buildProcessingSummary consolida las estadísticas de limpieza con el
// reporte de ingest.
func buildProcessingSummary(stats CleanStats, ingest domain.IngestReport) domain.ProcessingSummary {
	rate := 0.0
	if stats.OriginalRecords > 0 {
		rate = float64(stats.ValidRecords) / float64(stats.OriginalRecords)
	}
	return domain.ProcessingSummary{
		OriginalRecords:     stats.OriginalRecords,
		ValidRecords:        stats.ValidRecords,
		Excluded100Pct:      stats.Excluded100Pct,
		SuccessRate:         rate,
		BUDistribution:      stats.BUDistribution,
		CompanyDistribution: stats.CompanyDistribution,
		LeadTimeAdjusted:    stats.LeadTimeAdjusted,
		PastDatesCorrected:  stats.PastDatesCorrected,
		LeadTimeSources:     stats.LeadTimeSources,
		PaymentTermsSources: stats.PaymentTermsSources,
		Ingest:              ingest,
	}
}
