package domain

import (
	"strconv"
	"strings"
	"time"
)

// DateLayouts son los formatos de fecha aceptados en el workbook, en
// orden de preferencia. El cuarto es como excelize entrega celdas
// datetime sin formato de celda.
var DateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// ParseDate intenta parsear una celda como fecha en los formatos
// soportados. ok=false si la celda está vacía o no parsea.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parsea una celda numérica tolerando símbolos de moneda,
// separadores de miles y porcentaje. ok=false para celdas vacías,
// "nan" o no numéricas.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LastDayOfMonth devuelve el último día calendario del mes de t.
func LastDayOfMonth(t time.Time) time.Time {
	firstNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstNext.AddDate(0, 0, -1)
}
