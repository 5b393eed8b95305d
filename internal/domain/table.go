package domain

// Nombres canónicos de columnas del funnel tras la normalización.
const (
	ColOpportunityName = "Opportunity Name"
	ColAccountName     = "Account Name"
	ColBU              = "BU"
	ColAmount          = "Amount"
	ColCloseDate       = "Close Date"
	ColLeadTime        = "Lead Time"
	ColPaymentTerms    = "Payment Terms"
	ColProbability     = "Probability (%)"
	ColPaidInAdvance   = "Paid in Advance"
	ColRegion          = "Region"
	ColGrossMargin     = "Gross Margin"
	ColInvoiceDate     = "Invoice Date"
	ColSATDate         = "SAT Date"
)

// RequiredColumns son las columnas que el workbook debe contener
// (tras el matching difuso) para poder procesarse.
var RequiredColumns = []string{
	ColOpportunityName,
	ColBU,
	ColAmount,
	ColCloseDate,
	ColLeadTime,
	ColPaymentTerms,
	ColProbability,
	ColPaidInAdvance,
}

// Table es la tabla normalizada que sale del ingestor: headers
// canónicos y celdas crudas como texto. Las etapas de limpieza operan
// sobre copias, nunca mutan la tabla recibida.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable construye una tabla e indexa sus columnas.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// HasColumn informa si la columna canónica existe.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell devuelve la celda (row, columna canónica); "" si no existe.
func (t *Table) Cell(row int, column string) string {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) || idx >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][idx]
}

// SetCell escribe una celda, extendiendo la fila si es corta.
func (t *Table) SetCell(row int, column, value string) {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return
	}
	for len(t.Rows[row]) <= idx {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][idx] = value
}

// AddColumn agrega una columna vacía si no existe aún.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	t.index[name] = len(t.Columns) - 1
}

// Len devuelve el número de filas de datos.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone devuelve una copia profunda de la tabla. Cada etapa del
// pipeline transforma una copia para mantener la entrada intacta.
func (t *Table) Clone() *Table {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = make([]string, len(r))
		copy(rows[i], r)
	}
	return NewTable(cols, rows)
}
