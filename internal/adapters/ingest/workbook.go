package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// shortCircuitScore: con este score de header dejamos de buscar.
const shortCircuitScore = 0.8

// summaryKeywords marcan filas de agregación del reporte exportado que
// no son proyectos reales.
var summaryKeywords = []string{"SUBTOTAL", "SUM", "AVG", "COUNT", "AVERAGE", "TOTAL", "GRAND TOTAL"}

// Ingestor lee un workbook del funnel y lo normaliza al esquema
// canónico: detecta la fila de headers, renombra columnas y normaliza
// los valores de anticipo.
type Ingestor struct {
	sheet     string // vacío = primera hoja
	maxScan   int    // filas candidatas a header
	maxFileMB int    // 0 = sin límite
}

// New crea un Ingestor.
func New(sheet string, maxScan, maxFileMB int) *Ingestor {
	if maxScan <= 0 {
		maxScan = 20
	}
	return &Ingestor{sheet: sheet, maxScan: maxScan, maxFileMB: maxFileMB}
}

// ReadFile lee el workbook desde disco.
func (g *Ingestor) ReadFile(path string) (*domain.Table, domain.IngestReport, error) {
	if g.maxFileMB > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.IngestReport{}, fmt.Errorf("ingest.ReadFile: stat %q: %w", path, err)
		}
		if mb := info.Size() / (1 << 20); mb > int64(g.maxFileMB) {
			return nil, domain.IngestReport{}, fmt.Errorf("ingest.ReadFile: %q pesa %dMB, máximo %dMB", path, mb, g.maxFileMB)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, domain.IngestReport{}, fmt.Errorf("ingest.ReadFile: open %q: %w", path, err)
	}
	defer f.Close()
	return g.fromWorkbook(f)
}

// Read lee el workbook desde un reader (archivo subido, test).
func (g *Ingestor) Read(r io.Reader) (*domain.Table, domain.IngestReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.IngestReport{}, fmt.Errorf("ingest.Read: open workbook: %w", err)
	}
	defer f.Close()
	return g.fromWorkbook(f)
}

func (g *Ingestor) fromWorkbook(f *excelize.File) (*domain.Table, domain.IngestReport, error) {
	sheet := g.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, domain.IngestReport{}, fmt.Errorf("ingest: workbook sin hojas")
		}
		sheet = sheets[0]
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, domain.IngestReport{}, fmt.Errorf("ingest: read sheet %q: %w", sheet, err)
	}
	if len(grid) == 0 {
		return nil, domain.IngestReport{}, fmt.Errorf("ingest: hoja %q vacía", sheet)
	}

	return g.fromGrid(grid)
}

// fromGrid hace todo el trabajo sobre la matriz cruda; separado para
// poder testearlo sin un archivo xlsx real.
func (g *Ingestor) fromGrid(grid [][]string) (*domain.Table, domain.IngestReport, error) {
	headerRow, score := g.detectHeaderRow(grid)

	report := domain.IngestReport{
		HeaderRow:      headerRow,
		HeaderScore:    score,
		AppliedRenames: map[string]string{},
	}

	columns := make([]string, len(grid[headerRow]))
	for i, h := range grid[headerRow] {
		c := cleanHeader(h)
		if c == "" {
			c = fmt.Sprintf("Column_%d", i)
		}
		columns[i] = c
	}
	report.OriginalColumns = append([]string(nil), grid[headerRow]...)

	// Renombrar a canónico: requeridas + opcionales.
	canonicals := append(append([]string(nil), domain.RequiredColumns...), optionalColumns...)
	renames := map[string]string{}
	for _, canonical := range canonicals {
		match, ok := findMatch(canonical, columns)
		if !ok {
			continue
		}
		if match != canonical {
			renames[match] = canonical
			report.AppliedRenames[match] = canonical
		}
	}
	for i, c := range columns {
		if canonical, ok := renames[c]; ok {
			columns[i] = canonical
		}
	}

	// Requeridas sin match → fatal, con los nombres exactos faltantes.
	haveCol := map[string]bool{}
	for _, c := range columns {
		haveCol[c] = true
	}
	for _, required := range domain.RequiredColumns {
		if !haveCol[required] {
			report.MissingColumns = append(report.MissingColumns, required)
		}
	}
	if len(report.MissingColumns) > 0 {
		return nil, report, fmt.Errorf("ingest: columnas requeridas no encontradas: %s",
			strings.Join(report.MissingColumns, ", "))
	}

	// Filas de datos: debajo del header, padded al ancho de columnas.
	var rows [][]string
	for _, raw := range grid[headerRow+1:] {
		row := make([]string, len(columns))
		copy(row, raw)
		rows = append(rows, row)
	}

	table := domain.NewTable(columns, rows)
	report.SummaryRowsCut = dropSummaryRows(table)
	report.PIANormalized = normalizeAdvance(table)

	slog.Info("workbook ingested",
		"header_row", headerRow,
		"score", fmt.Sprintf("%.2f", score),
		"rows", table.Len(),
		"renames", len(report.AppliedRenames),
	)
	return table, report, nil
}

// detectHeaderRow prueba las primeras filas como header y se queda con
// la de mejor score. Corta temprano con un score alto para no escanear
// archivos grandes completos. Si nada puntúa, cae a la fila 0.
func (g *Ingestor) detectHeaderRow(grid [][]string) (int, float64) {
	limit := g.maxScan
	if limit > len(grid) {
		limit = len(grid)
	}

	bestRow, bestScore := 0, 0.0
	for idx := 0; idx < limit; idx++ {
		score := scoreHeaderRow(grid[idx])
		if score > bestScore {
			bestScore = score
			bestRow = idx
		}
		if score >= shortCircuitScore {
			break
		}
	}
	return bestRow, bestScore
}

// dropSummaryRows elimina filas de agregación (Total/Subtotal/Sum/...)
// detectadas en la columna BU o en la de probabilidad, y filas
// completamente vacías. Devuelve cuántas removió.
func dropSummaryRows(t *domain.Table) int {
	kept := t.Rows[:0]
	removed := 0
	for i := range t.Rows {
		if emptyRow(t.Rows[i]) {
			removed++
			continue
		}
		bu := strings.ToUpper(strings.TrimSpace(t.Cell(i, domain.ColBU)))
		prob := strings.ToUpper(strings.TrimSpace(t.Cell(i, domain.ColProbability)))
		if containsSummaryKeyword(bu) || containsSummaryKeyword(prob) {
			removed++
			continue
		}
		kept = append(kept, t.Rows[i])
	}
	t.Rows = kept
	return removed
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func containsSummaryKeyword(s string) bool {
	if s == "" {
		return false
	}
	for _, kw := range summaryKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// normalizeAdvance detecta si la columna Paid in Advance viene como
// fracción (max <= 1), porcentaje (1 < max <= 100) o monto absoluto, y
// la convierte a monto usando Amount. Devuelve true si convirtió.
func normalizeAdvance(t *domain.Table) bool {
	if !t.HasColumn(domain.ColPaidInAdvance) || !t.HasColumn(domain.ColAmount) {
		return false
	}

	max := 0.0
	seen := 0
	for i := 0; i < t.Len(); i++ {
		v, ok := domain.ParseNumber(t.Cell(i, domain.ColPaidInAdvance))
		if !ok {
			continue
		}
		if v > max {
			max = v
		}
		seen++
	}
	if seen == 0 || max > 100 {
		return false // sin datos, o ya son montos absolutos
	}

	divisor, mode := 1.0, "decimal"
	if max > 1 {
		divisor, mode = 100.0, "percent" // porcentajes tipo "15" = 15%
	}

	for i := 0; i < t.Len(); i++ {
		pia, ok := domain.ParseNumber(t.Cell(i, domain.ColPaidInAdvance))
		if !ok {
			continue
		}
		amount, ok := domain.ParseNumber(t.Cell(i, domain.ColAmount))
		if !ok {
			continue
		}
		t.SetCell(i, domain.ColPaidInAdvance, fmt.Sprintf("%.2f", pia/divisor*amount))
	}
	slog.Info("valores de anticipo convertidos a monto", "mode", mode)
	return true
}
