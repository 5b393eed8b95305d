package forecast

// aggregate.go — reducción de eventos de facturación a las tablas que
// consume la capa de presentación: resumen ejecutivo, pivot mensual y
// costo de venta.

import (
	"sort"
	"time"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// Summarize produce el resumen ejecutivo del forecast.
func Summarize(events []domain.BillingEvent) domain.ForecastSummary {
	s := domain.ForecastSummary{
		BUDistribution:      map[string]float64{},
		MonthlyDistribution: map[string]float64{},
	}
	if len(events) == 0 {
		return s
	}

	names := map[string]bool{}
	for _, ev := range events {
		s.TotalAdjusted += ev.AmountAdjusted
		s.TotalEvents++
		names[ev.OpportunityName] = true
		s.BUDistribution[string(ev.BU)] += ev.AmountAdjusted
		s.MonthlyDistribution[ev.MonthYear()] += ev.AmountAdjusted

		if s.StartDate.IsZero() || ev.Date.Before(s.StartDate) {
			s.StartDate = ev.Date
		}
		if ev.Date.After(s.EndDate) {
			s.EndDate = ev.Date
		}
	}
	s.TotalOpportunities = len(names)
	return s
}

// projectGroup agrupa eventos por (proyecto, BU).
type projectGroup struct {
	project string
	bu      string
	company string
	events  []domain.BillingEvent
}

// groupByProject agrupa preservando el orden de primera aparición,
// para que las tablas salgan deterministas.
func groupByProject(events []domain.BillingEvent) []*projectGroup {
	index := map[string]*projectGroup{}
	var order []*projectGroup
	for _, ev := range events {
		key := ev.OpportunityName + "|" + string(ev.BU)
		g, ok := index[key]
		if !ok {
			company := ev.Company
			if company == "" {
				company = domain.CompanyUnclassified
			}
			g = &projectGroup{project: ev.OpportunityName, bu: string(ev.BU), company: company}
			index[key] = g
			order = append(order, g)
		}
		g.events = append(g.events, ev)
	}
	return order
}

// collectMonths devuelve las llaves de mes presentes, ordenadas
// cronológicamente. Llaves no parseables van al final.
func collectMonths(events []domain.BillingEvent) []string {
	seen := map[string]bool{}
	var months []string
	for _, ev := range events {
		key := ev.MonthYear()
		if !seen[key] {
			seen[key] = true
			months = append(months, key)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		ti, erri := domain.ParseMonthKey(months[i])
		tj, errj := domain.ParseMonthKey(months[j])
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		return ti.Before(tj)
	})
	return months
}

// BuildForecastTable arma el pivot: una fila por (proyecto, BU), una
// columna por mes, celda = suma de montos ajustados.
func BuildForecastTable(events []domain.BillingEvent) domain.ForecastTable {
	table := domain.ForecastTable{MonthlyTotals: map[string]float64{}}
	if len(events) == 0 {
		return table
	}

	table.Months = collectMonths(events)
	for _, m := range table.Months {
		table.MonthlyTotals[m] = 0
	}

	for _, g := range groupByProject(events) {
		row := domain.ForecastRow{
			Project: g.project,
			BU:      g.bu,
			Company: g.company,
			Monthly: map[string]float64{},
		}
		for _, ev := range g.events {
			key := ev.MonthYear()
			row.Monthly[key] += ev.AmountAdjusted
			table.MonthlyTotals[key] += ev.AmountAdjusted
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// BuildCostOfSaleTable arma el pivot de costo de venta. El costo
// (monto total − margen bruto) de cada proyecto cae completo en el mes
// de su último evento de facturación: nunca se distribuye.
func BuildCostOfSaleTable(events []domain.BillingEvent) domain.CostOfSaleTable {
	table := domain.CostOfSaleTable{MonthlyTotals: map[string]float64{}}
	if len(events) == 0 {
		return table
	}

	table.Months = collectMonths(events)
	for _, m := range table.Months {
		table.MonthlyTotals[m] = 0
	}

	for _, g := range groupByProject(events) {
		var amountTotal float64
		var lastDate time.Time
		var lastMonth string
		for _, ev := range g.events {
			amountTotal += ev.Amount
			if lastDate.IsZero() || ev.Date.After(lastDate) {
				lastDate = ev.Date
				lastMonth = ev.MonthYear()
			}
		}

		margin := g.events[0].GrossMargin
		cost := 0.0
		if amountTotal > 0 {
			cost = amountTotal - margin
		}

		table.Rows = append(table.Rows, domain.CostOfSaleRow{
			Project:     g.project,
			BU:          g.bu,
			Company:     g.company,
			AmountTotal: amountTotal,
			GrossMargin: margin,
			CostOfSale:  cost,
			Month:       lastMonth,
		})
		table.MonthlyTotals[lastMonth] += cost
		table.TotalAmount += amountTotal
		table.TotalGrossMargin += margin
		table.TotalCostOfSale += cost
	}
	return table
}
