package domain

import (
	"fmt"
	"time"
)

// BusinessUnit es la unidad de negocio que gobierna el esquema de facturación.
type BusinessUnit string

const (
	BUICT BusinessUnit = "ICT"
	BUFCT BusinessUnit = "FCT"
	BUIAT BusinessUnit = "IAT"
	BUREP BusinessUnit = "REP"
	BUSWD BusinessUnit = "SWD"
)

// ValidBusinessUnits es la lista de BUs aceptadas en el funnel.
var ValidBusinessUnits = []BusinessUnit{BUICT, BUFCT, BUIAT, BUREP, BUSWD}

// ParseBusinessUnit valida un código de BU crudo del workbook.
func ParseBusinessUnit(s string) (BusinessUnit, error) {
	for _, bu := range ValidBusinessUnits {
		if string(bu) == s {
			return bu, nil
		}
	}
	return "", fmt.Errorf("domain.ParseBusinessUnit: BU inválida %q", s)
}

// MultiStage devuelve true si la BU factura en cuatro etapas
// (Inicio/DR/FAT/SAT). ICT factura simplificado (1 o 2 eventos).
func (b BusinessUnit) MultiStage() bool {
	return b != BUICT
}

// Clasificación de empresa según la región de origen.
const (
	CompanyLLC          = "LLC"
	CompanySAPI         = "SAPI"
	CompanyUnclassified = "Sin Clasificar"
)

// Fuente de un campo completado durante la limpieza.
const (
	SourceOriginal   = "original"
	SourceHistorical = "historical"
	SourceEstimated  = "estimated"
	SourceDefault    = "default"
)

// Opportunity es una oportunidad del funnel ya limpia y validada.
// Inmutable una vez construida: el motor de forecast solo la lee.
type Opportunity struct {
	Name          string
	BU            BusinessUnit
	Amount        float64
	CloseDate     time.Time
	LeadTimeWeeks float64 // semanas hasta la facturación final, ya ajustado al mínimo

	// Probability es la probabilidad asignada (0–1). Las oportunidades
	// al 100% se excluyen antes de construir el objeto.
	Probability float64

	PaidInAdvance float64 // 0 si no hay anticipo
	PaymentTerms  string
	Region        string
	Company       string
	GrossMargin   float64 // margen bruto absoluto, 0 si no viene

	// Fechas explícitas del workbook, cero si no vienen. Cuando existen
	// mandan sobre close_date + lead_time para el cobro final ICT.
	InvoiceDate time.Time
	SATDate     time.Time

	// LeadTimeOriginal es el valor previo al clamp del mínimo.
	LeadTimeOriginal float64
}

// NewOpportunity construye una oportunidad validando sus invariantes.
// Rechaza temprano: una Opportunity que existe siempre es procesable.
func NewOpportunity(name string, bu BusinessUnit, amount float64, closeDate time.Time, leadTime, probability float64) (Opportunity, error) {
	if name == "" {
		return Opportunity{}, fmt.Errorf("domain.NewOpportunity: nombre vacío")
	}
	if amount <= 0 {
		return Opportunity{}, fmt.Errorf("domain.NewOpportunity: %q: amount debe ser > 0, got %.2f", name, amount)
	}
	if leadTime <= 0 {
		return Opportunity{}, fmt.Errorf("domain.NewOpportunity: %q: lead time debe ser > 0, got %.2f", name, leadTime)
	}
	if probability < 0 || probability > 1 {
		return Opportunity{}, fmt.Errorf("domain.NewOpportunity: %q: probabilidad fuera de rango [0,1]: %.2f", name, probability)
	}
	if closeDate.IsZero() {
		return Opportunity{}, fmt.Errorf("domain.NewOpportunity: %q: close date requerida", name)
	}
	return Opportunity{
		Name:             name,
		BU:               bu,
		Amount:           amount,
		CloseDate:        closeDate,
		LeadTimeWeeks:    leadTime,
		LeadTimeOriginal: leadTime,
		Probability:      probability,
	}, nil
}

// HasAdvance devuelve true si la oportunidad tiene pago anticipado.
func (o Opportunity) HasAdvance() bool {
	return o.PaidInAdvance > 0
}
