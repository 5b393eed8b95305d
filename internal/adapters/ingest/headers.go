package ingest

// headers.go — detección difusa de la fila de headers y mapeo de
// nombres de columnas arbitrarios al esquema canónico.
//
// El matching tiene tres niveles de prioridad:
//  1. igualdad exacta normalizada
//  2. tabla de alias conocidos (inglés/español)
//  3. substring con guard de longitud >= 4

import (
	"regexp"
	"strings"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// columnAliases mapea cada columna canónica a sus variantes conocidas.
var columnAliases = map[string][]string{
	domain.ColOpportunityName: {
		"opportunity name", "opportunity_name", "project name", "project_name",
		"nombre oportunidad", "nombre proyecto", "oportunidad", "proyecto",
	},
	domain.ColAccountName: {
		"account name", "account_name", "client name", "client_name",
		"customer name", "customer_name", "nombre cliente", "cliente", "customer",
	},
	domain.ColBU: {
		"bu", "business unit", "business_unit", "unidad negocio", "unidad_negocio",
	},
	domain.ColAmount: {
		"amount", "monto", "valor", "value", "total", "importe", "precio", "price",
	},
	domain.ColCloseDate: {
		"close date", "close_date", "fecha cierre", "fecha_cierre",
		"closing date", "closing_date", "fecha", "date",
	},
	domain.ColLeadTime: {
		"lead time", "lead_time", "leadtime", "tiempo entrega", "tiempo_entrega",
		"delivery time", "delivery_time", "plazo", "semanas",
	},
	domain.ColPaymentTerms: {
		"payment terms", "payment_terms", "terminos pago", "terminos_pago",
		"condiciones pago", "condiciones_pago", "terms", "terminos",
	},
	domain.ColProbability: {
		"probability", "probabilidad", "prob", "probability (%)", "probability%",
		"prob %", "prob%",
	},
	domain.ColPaidInAdvance: {
		"paid in advance", "paid_in_advance", "pia", "calculated pia", "calculated_pia",
		"pago adelantado", "pago_adelantado", "anticipo", "advance payment",
		"advance_payment", "prepago", "prepayment",
	},
	domain.ColRegion: {
		"region", "región", "area", "country", "pais", "país", "location",
		"ubicación", "ubicacion", "zona", "zone", "territorio", "territory",
	},
	domain.ColGrossMargin: {
		"gross margin", "gross_margin", "margen bruto", "margen_bruto",
		"margen", "margin", "gm",
	},
	domain.ColInvoiceDate: {
		"invoice date", "invoice_date", "fecha factura", "fecha_factura",
	},
	domain.ColSATDate: {
		"sat date", "sat_date", "fecha sat", "fecha_sat",
	},
}

// optionalColumns se mapean si aparecen pero no cuentan para el score
// ni su ausencia es fatal.
var optionalColumns = []string{
	domain.ColAccountName,
	domain.ColRegion,
	domain.ColGrossMargin,
	domain.ColInvoiceDate,
	domain.ColSATDate,
}

var (
	nonAlnumRe = regexp.MustCompile(`[^\w\s]`)
	spacesRe   = regexp.MustCompile(`\s+`)
	// Glifos direccionales que los reportes exportados arrastran en los
	// headers (p.ej. "Probability (%)  ↑").
	glyphReplacer = strings.NewReplacer(
		"↑", "", "↓", "", "→", "", "←", "",
		"⬆", "", "⬇", "", "➡", "", "⬅", "",
		"▲", "", "▼", "", "►", "", "◄", "",
	)
)

// normalizeText prepara un texto para comparación: minúsculas, sin
// símbolos, espacios colapsados.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// cleanHeader limpia un header crudo: glifos fuera, espacios colapsados.
func cleanHeader(s string) string {
	s = glyphReplacer.Replace(s)
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// findMatch busca en las columnas disponibles la que corresponde a la
// canónica pedida, respetando la prioridad exacto → alias → substring.
func findMatch(canonical string, available []string) (string, bool) {
	want := normalizeText(canonical)

	for _, col := range available {
		if normalizeText(col) == want {
			return col, true
		}
	}

	for _, alias := range columnAliases[canonical] {
		aliasNorm := normalizeText(alias)
		for _, col := range available {
			if normalizeText(col) == aliasNorm {
				return col, true
			}
		}
	}

	// Substring: solo con nombres de longitud significativa, para que
	// "date" no se coma "Close Date" vs "Invoice Date" por accidente.
	for _, col := range available {
		colNorm := normalizeText(col)
		if len(want) <= 3 || len(colNorm) <= 3 {
			continue
		}
		if strings.Contains(colNorm, want) || strings.Contains(want, colNorm) {
			return col, true
		}
	}

	return "", false
}

// scoreHeaderRow califica qué tan probable es que esta fila sea el
// header: fracción de requeridas con match, un bonus por un número
// razonable de columnas y una penalización por celdas en blanco.
func scoreHeaderRow(cells []string) float64 {
	if len(cells) == 0 {
		return 0
	}

	cleaned := make([]string, len(cells))
	for i, c := range cells {
		cleaned[i] = cleanHeader(c)
	}

	matches := 0
	for _, required := range domain.RequiredColumns {
		if _, ok := findMatch(required, cleaned); ok {
			matches++
		}
	}
	score := float64(matches) / float64(len(domain.RequiredColumns))

	if len(cells) >= 5 && len(cells) <= 20 {
		score += 0.1
	}

	blank := 0
	for _, c := range cleaned {
		if c == "" {
			blank++
		}
	}
	score -= float64(blank) / float64(len(cells)) * 0.2

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
