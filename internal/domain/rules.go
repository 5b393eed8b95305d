package domain

import "math"

// LeadTimeBand asigna un lead time por defecto según el monto del
// proyecto, cuando no hay histórico del cliente.
type LeadTimeBand struct {
	MinAmount float64 // inclusivo
	MaxAmount float64 // exclusivo, math.Inf(1) para la última banda
	Weeks     float64
}

// BusinessRules son las reglas de negocio negociadas del forecast.
// Es un valor inmutable que se pasa explícito por todo el pipeline;
// no hay estado global mutable.
type BusinessRules struct {
	// MinLeadTimeWeeks es el piso de lead time: valores positivos
	// menores se ajustan hacia arriba.
	MinLeadTimeWeeks float64

	// Castigo financiero sobre el monto ya ponderado por probabilidad.
	// La banda del 60% (±0.01) tiene su propio factor negociado.
	PenaltyDefault float64
	Penalty60      float64

	// Offsets en días para las etapas DR y SAT de BUs multi-fase.
	DRDaysOffset  int
	SATDaysOffset int

	// Porcentajes de las cuatro etapas sin anticipo. Deben sumar 1.0.
	InicioPct float64
	DRPct     float64
	FATPct    float64
	SATPct    float64

	// DRFATSplit reparte el restante entre DR y FAT cuando hay
	// anticipo (default 50/50).
	DRFATSplit float64

	// LeadTimeBands es la tabla de defaults por monto; FallbackLeadTime
	// aplica si el monto no cae en ninguna banda.
	LeadTimeBands    []LeadTimeBand
	FallbackLeadTime float64

	// DefaultPaymentTerms cuando ni el workbook ni el histórico tienen dato.
	DefaultPaymentTerms string
}

// DefaultBusinessRules devuelve las reglas negociadas vigentes.
func DefaultBusinessRules() BusinessRules {
	return BusinessRules{
		MinLeadTimeWeeks:    4,
		PenaltyDefault:      0.40,
		Penalty60:           0.60,
		DRDaysOffset:        30,
		SATDaysOffset:       30,
		InicioPct:           0.30,
		DRPct:               0.30,
		FATPct:              0.30,
		SATPct:              0.10,
		DRFATSplit:          0.50,
		FallbackLeadTime:    8,
		DefaultPaymentTerms: "NET 30",
		LeadTimeBands: []LeadTimeBand{
			{MinAmount: 0, MaxAmount: 50_000, Weeks: 6},
			{MinAmount: 50_000, MaxAmount: 200_000, Weeks: 10},
			{MinAmount: 200_000, MaxAmount: 500_000, Weeks: 16},
			{MinAmount: 500_000, MaxAmount: math.Inf(1), Weeks: 24},
		},
	}
}

// PenaltyFor devuelve el factor de castigo para una probabilidad.
// La banda del 60% es un match exacto con tolerancia, no una función
// continua: así se negoció la política de riesgo.
func (r BusinessRules) PenaltyFor(probability float64) float64 {
	if math.Abs(probability-0.60) < 0.01 {
		return r.Penalty60
	}
	return r.PenaltyDefault
}

// EstimateLeadTime devuelve el lead time por monto según la tabla de
// bandas, o el fallback genérico si ninguna banda aplica.
func (r BusinessRules) EstimateLeadTime(amount float64) float64 {
	for _, band := range r.LeadTimeBands {
		if amount >= band.MinAmount && amount < band.MaxAmount {
			return band.Weeks
		}
	}
	return r.FallbackLeadTime
}

// StagePctSum devuelve la suma de los cuatro porcentajes de etapa.
// Debe ser 1.0; el config lo valida al cargar.
func (r BusinessRules) StagePctSum() float64 {
	return r.InicioPct + r.DRPct + r.FATPct + r.SATPct
}
