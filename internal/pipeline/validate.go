package pipeline

// validate.go — validación fila por fila de la tabla normalizada. Los
// problemas de fila son advertencias acumuladas, nunca detienen el
// procesamiento; solo cero filas válidas es fatal.

import (
	"fmt"
	"strings"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// requiredRowFields son los campos que una fila necesita traer de
// origen. Lead time y payment terms NO están: son completables desde el
// histórico o los defaults, su ausencia nunca invalida una fila.
var requiredRowFields = []string{
	domain.ColOpportunityName,
	domain.ColBU,
	domain.ColAmount,
	domain.ColCloseDate,
}

// ValidateTable valida la tabla ya preparada (glifos limpios,
// agrupadores propagados). Filas con campos faltantes o valores
// malformados generan advertencias; menos del 50% de filas válidas
// agrega una advertencia de archivo; cero filas válidas invalida el
// archivo completo.
func ValidateTable(t *domain.Table) *domain.ValidationResult {
	result := domain.NewValidationResult(t.Len())

	if t.Len() == 0 {
		result.AddError("el archivo no contiene datos para procesar")
		return result
	}

	for i := 0; i < t.Len(); i++ {
		errs := validateRow(t, i)
		if len(errs) == 0 {
			result.ValidRecords++
			continue
		}
		for _, e := range errs {
			result.AddWarning(fmt.Sprintf("fila %d: %s", i+1, e))
		}
	}

	if result.ValidRecords == 0 {
		result.AddError("ninguna fila del archivo es válida")
	} else if result.ValidRecords*2 < result.TotalRecords {
		result.AddWarning(fmt.Sprintf(
			"solo %d de %d filas son válidas (%.1f%%)",
			result.ValidRecords, result.TotalRecords, result.SuccessRate()*100,
		))
	}
	return result
}

// validateRow devuelve los problemas de una fila individual.
func validateRow(t *domain.Table, i int) []string {
	var errs []string

	for _, field := range requiredRowFields {
		if strings.TrimSpace(t.Cell(i, field)) == "" {
			errs = append(errs, fmt.Sprintf("campo requerido %q vacío", field))
		}
	}

	if bu := strings.TrimSpace(t.Cell(i, domain.ColBU)); bu != "" {
		if _, err := domain.ParseBusinessUnit(bu); err != nil {
			errs = append(errs, fmt.Sprintf("BU inválida %q", bu))
		}
	}

	if cell := strings.TrimSpace(t.Cell(i, domain.ColAmount)); cell != "" {
		if v, ok := domain.ParseNumber(cell); !ok {
			errs = append(errs, "Amount no es numérico")
		} else if v <= 0 {
			errs = append(errs, "Amount debe ser mayor a 0")
		}
	}

	if cell := strings.TrimSpace(t.Cell(i, domain.ColLeadTime)); cell != "" {
		if v, ok := domain.ParseNumber(cell); !ok {
			errs = append(errs, "Lead Time no es numérico")
		} else if v <= 0 {
			errs = append(errs, "Lead Time debe ser mayor a 0")
		}
	}

	if cell := strings.TrimSpace(t.Cell(i, domain.ColCloseDate)); cell != "" {
		if _, ok := domain.ParseDate(cell); !ok {
			errs = append(errs, fmt.Sprintf("Close Date %q no parsea en los formatos soportados", cell))
		}
	}

	if cell := strings.TrimSpace(t.Cell(i, domain.ColPaidInAdvance)); cell != "" {
		if v, ok := domain.ParseNumber(cell); !ok {
			errs = append(errs, "Paid in Advance no es numérico")
		} else if v < 0 {
			errs = append(errs, "Paid in Advance no puede ser negativo")
		}
	}

	return errs
}
