package domain

import (
	"strings"
	"time"
)

// HistoricalProject es un registro histórico de oportunidad procesada,
// la unidad de almacenamiento del store de clientes.
type HistoricalProject struct {
	ClientName    string
	ProjectName   string
	BU            string
	Amount        float64
	CloseDate     time.Time
	LeadTime      float64
	PaymentTerms  string
	Probability   float64
	PaidInAdvance float64
}

// ClientHistory resume el histórico de un cliente.
type ClientHistory struct {
	ClientName      string
	MostCommonTerms string
	AverageLeadTime float64
	ProjectCount    int
	LastProjectDate time.Time
	AverageAmount   float64
}

// ClientDefaults son overrides configurados manualmente por cliente.
// Cuando existen mandan sobre lo inferido del histórico.
type ClientDefaults struct {
	ClientName          string
	DefaultPaymentTerms string
	DefaultLeadTime     float64
	Notes               string
}

// StoreStats describe la cobertura del histórico.
type StoreStats struct {
	TotalProjects    int
	UniqueClients    int
	WithPaymentTerms int
	WithLeadTime     int
}

// ExtractClientName deriva la llave de cliente desde el nombre de la
// oportunidad. Heurística, en orden:
//   - "Cliente ABC - Proyecto XYZ"  → "Cliente ABC"
//   - "Proyecto para Cliente ABC"   → "Cliente Abc" (title case)
//   - "ABC Corp Project"            → "ABC Corp"
//   - resto: primeras dos palabras
func ExtractClientName(projectName string) string {
	clean := strings.TrimSpace(projectName)
	if clean == "" {
		return "Unknown Client"
	}

	if before, _, found := strings.Cut(clean, " - "); found {
		return strings.TrimSpace(before)
	}

	if idx := strings.Index(strings.ToLower(clean), " para "); idx >= 0 {
		rest := strings.TrimSpace(clean[idx+len(" para "):])
		if rest != "" {
			return titleCase(rest)
		}
	}

	words := strings.Fields(clean)
	if len(words) > 1 {
		last := strings.ToLower(words[len(words)-1])
		if strings.Contains(last, "project") || strings.Contains(last, "proyecto") {
			return strings.Join(words[:len(words)-1], " ")
		}
		if len(words) > 2 {
			return strings.Join(words[:2], " ")
		}
		return strings.Join(words[:2], " ")
	}

	return clean
}

// titleCase capitaliza la primera letra de cada palabra. strings.Title
// está deprecado y golang.org/x/text/cases es overkill para llaves ASCII.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
