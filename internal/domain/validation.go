package domain

// ValidationResult acumula errores y advertencias de la validación de
// un archivo o de una fila individual.
type ValidationResult struct {
	IsValid      bool
	Errors       []string
	Warnings     []string
	ValidRecords int
	TotalRecords int
}

// NewValidationResult crea un resultado válido vacío.
func NewValidationResult(total int) *ValidationResult {
	return &ValidationResult{IsValid: true, TotalRecords: total}
}

// AddError registra un error e invalida el resultado.
func (v *ValidationResult) AddError(msg string) {
	v.Errors = append(v.Errors, msg)
	v.IsValid = false
}

// AddWarning registra una advertencia sin invalidar el resultado.
func (v *ValidationResult) AddWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

// SuccessRate devuelve la fracción de registros válidos.
func (v *ValidationResult) SuccessRate() float64 {
	if v.TotalRecords == 0 {
		return 0
	}
	return float64(v.ValidRecords) / float64(v.TotalRecords)
}
