package forecast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// Engine convierte oportunidades limpias en eventos de facturación
// según las reglas de negocio por BU. Cálculo puro y determinista:
// misma entrada + mismas reglas = misma secuencia de eventos.
type Engine struct {
	rules domain.BusinessRules
}

// NewEngine crea un Engine con las reglas dadas.
func NewEngine(rules domain.BusinessRules) *Engine {
	return &Engine{rules: rules}
}

// Calculate genera los eventos de todas las oportunidades. Un error en
// una oportunidad se loguea y se salta; el resto sigue procesándose.
func (e *Engine) Calculate(opportunities []domain.Opportunity) []domain.BillingEvent {
	var events []domain.BillingEvent
	skipped := 0

	for _, opp := range opportunities {
		oppEvents, err := e.EventsFor(opp)
		if err != nil {
			slog.Error("forecast de oportunidad falló, se omite", "opportunity", opp.Name, "err", err)
			skipped++
			continue
		}
		events = append(events, oppEvents...)
	}

	slog.Info("forecast calculado",
		"opportunities", len(opportunities),
		"events", len(events),
		"skipped", skipped,
	)
	return events
}

// EventsFor genera los eventos de una sola oportunidad.
func (e *Engine) EventsFor(opp domain.Opportunity) ([]domain.BillingEvent, error) {
	if opp.BU.MultiStage() {
		return e.multiStage(opp)
	}
	return e.simple(opp)
}

// simple es la facturación ICT: uno o dos cobros.
//
// Con anticipo: PIA en close date + cobro Final por el restante. Sin
// anticipo: un único cobro Final por el total. El cobro final cae en
// la fecha explícita del workbook (SAT/Invoice Date) si viene; si no,
// en close date + lead time.
func (e *Engine) simple(opp domain.Opportunity) ([]domain.BillingEvent, error) {
	var events []domain.BillingEvent

	if opp.HasAdvance() {
		if opp.PaidInAdvance > opp.Amount {
			return nil, fmt.Errorf("forecast: anticipo %.2f mayor al monto %.2f", opp.PaidInAdvance, opp.Amount)
		}
		events = append(events, e.newEvent(opp, domain.StagePIA, opp.CloseDate, opp.PaidInAdvance))

		if remaining := opp.Amount - opp.PaidInAdvance; remaining > 0 {
			date := opp.SATDate
			if date.IsZero() {
				date = addWeeks(opp.CloseDate, opp.LeadTimeWeeks)
			}
			events = append(events, e.newEvent(opp, domain.StageFinal, date, remaining))
		}
		return events, nil
	}

	date := opp.InvoiceDate
	if date.IsZero() {
		date = addWeeks(opp.CloseDate, opp.LeadTimeWeeks)
	}
	events = append(events, e.newEvent(opp, domain.StageFinal, date, opp.Amount))
	return events, nil
}

// multiStage es la facturación en cuatro etapas (FCT, IAT, REP, SWD):
//
//	Inicio = close date
//	DR     = Inicio + offset días
//	FAT    = DR + lead time semanas
//	SAT    = FAT + offset días
//
// Sin anticipo cada etapa cobra su porcentaje configurado. Con
// anticipo el Inicio cobra el anticipo, SAT mantiene su porcentaje
// fijo del total y el restante se reparte entre DR y FAT.
func (e *Engine) multiStage(opp domain.Opportunity) ([]domain.BillingEvent, error) {
	inicioDate := opp.CloseDate
	drDate := inicioDate.AddDate(0, 0, e.rules.DRDaysOffset)
	fatDate := addWeeks(drDate, opp.LeadTimeWeeks)
	satDate := fatDate.AddDate(0, 0, e.rules.SATDaysOffset)

	if !opp.HasAdvance() {
		return []domain.BillingEvent{
			e.newEvent(opp, domain.StageInicio, inicioDate, opp.Amount*e.rules.InicioPct),
			e.newEvent(opp, domain.StageDR, drDate, opp.Amount*e.rules.DRPct),
			e.newEvent(opp, domain.StageFAT, fatDate, opp.Amount*e.rules.FATPct),
			e.newEvent(opp, domain.StageSAT, satDate, opp.Amount*e.rules.SATPct),
		}, nil
	}

	satAmount := opp.Amount * e.rules.SATPct
	remaining := opp.Amount - opp.PaidInAdvance - satAmount
	if remaining < 0 {
		return nil, fmt.Errorf("forecast: anticipo %.2f + SAT %.2f exceden el monto %.2f",
			opp.PaidInAdvance, satAmount, opp.Amount)
	}
	drAmount := remaining * e.rules.DRFATSplit
	fatAmount := remaining * e.rules.DRFATSplit

	events := []domain.BillingEvent{
		e.newEvent(opp, domain.StageInicio, inicioDate, opp.PaidInAdvance),
	}
	if drAmount > 0 {
		events = append(events, e.newEvent(opp, domain.StageDR, drDate, drAmount))
	}
	if fatAmount > 0 {
		events = append(events, e.newEvent(opp, domain.StageFAT, fatDate, fatAmount))
	}
	if satAmount > 0 {
		events = append(events, e.newEvent(opp, domain.StageSAT, satDate, satAmount))
	}
	return events, nil
}

// newEvent construye el evento aplicando el ajuste de riesgo:
// monto × probabilidad × castigo financiero.
func (e *Engine) newEvent(opp domain.Opportunity, stage domain.Stage, date time.Time, amount float64) domain.BillingEvent {
	penalty := e.rules.PenaltyFor(opp.Probability)
	return domain.BillingEvent{
		OpportunityName:  opp.Name,
		BU:               opp.BU,
		Stage:            stage,
		Date:             date,
		Amount:           amount,
		AmountAdjusted:   amount * opp.Probability * penalty,
		Probability:      opp.Probability,
		LeadTimeOriginal: opp.LeadTimeOriginal,
		LeadTimeAdjusted: opp.LeadTimeWeeks,
		Region:           opp.Region,
		Company:          opp.Company,
		GrossMargin:      opp.GrossMargin,
	}
}

// addWeeks suma semanas (posiblemente fraccionarias) a una fecha.
func addWeeks(t time.Time, weeks float64) time.Time {
	return t.Add(time.Duration(weeks * 7 * 24 * float64(time.Hour)))
}
