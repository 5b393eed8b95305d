package domain

import (
	"fmt"
	"time"
)

// Stage es la etapa de facturación de un evento.
type Stage string

const (
	// Etapas ICT (facturación simplificada)
	StagePIA   Stage = "PIA"
	StageFinal Stage = "Final"

	// Etapas multi-fase (FCT, IAT, REP, SWD)
	StageInicio Stage = "Inicio"
	StageDR     Stage = "DR"
	StageFAT    Stage = "FAT"
	StageSAT    Stage = "SAT"
)

// BillingEvent es un cobro proyectado para una oportunidad.
// Se crea en el motor de forecast y es de solo lectura aguas abajo.
type BillingEvent struct {
	OpportunityName string
	BU              BusinessUnit
	Stage           Stage
	Date            time.Time

	// Amount es el monto crudo de la etapa; AmountAdjusted aplica
	// probabilidad × castigo financiero.
	Amount         float64
	AmountAdjusted float64
	Probability    float64

	LeadTimeOriginal float64
	LeadTimeAdjusted float64

	Region      string
	Company     string
	GrossMargin float64
}

// MonthYear devuelve la llave de mes del evento, p.ej. "January 2026".
func (e BillingEvent) MonthYear() string {
	return MonthKey(e.Date)
}

// MonthKey formatea una fecha como llave de mes "January 2006".
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%s %d", t.Month().String(), t.Year())
}

// ParseMonthKey convierte una llave "January 2006" de vuelta a fecha
// (día 1 del mes). Las llaves no parseables van al final del orden.
func ParseMonthKey(key string) (time.Time, error) {
	t, err := time.Parse("January 2006", key)
	if err != nil {
		return time.Time{}, fmt.Errorf("domain.ParseMonthKey: %q: %w", key, err)
	}
	return t, nil
}
