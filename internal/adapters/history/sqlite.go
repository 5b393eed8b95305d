package history

// sqlite.go — repositorio histórico de clientes sobre SQLite puro Go.
//
// Dos tablas:
//   - `historical_projects`: una fila por oportunidad procesada, única
//     por (cliente, proyecto, close date), last-write-wins. Se
//     realimenta en cada corrida del pipeline.
//   - `client_config`: overrides manuales por cliente; cuando existen
//     mandan sobre lo inferido del histórico.
//
// Todos los lookups devuelven ok=false en miss, nunca error: el
// pipeline cae a sus defaults deterministas.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS historical_projects (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    client_name     TEXT NOT NULL,
    project_name    TEXT,
    bu              TEXT,
    amount          REAL,
    close_date      TEXT,
    lead_time       REAL,
    payment_terms   TEXT,
    probability     REAL,
    paid_in_advance REAL,
    created_at      TEXT DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(client_name, project_name, close_date)
);

CREATE TABLE IF NOT EXISTS client_config (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    client_name           TEXT UNIQUE NOT NULL,
    default_payment_terms TEXT,
    default_lead_time     REAL,
    notes                 TEXT,
    updated_at            TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_hist_client ON historical_projects(client_name);
CREATE INDEX IF NOT EXISTS idx_hist_close  ON historical_projects(close_date);
`

// dateFormat: las fechas se guardan ISO para que MAX() ordene bien.
const dateFormat = "2006-01-02"

// SQLiteStore implementa ports.HistoryStore usando SQLite (pure Go, sin CGo).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore abre (o crea) la base en la ruta dada y aplica el schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history.NewSQLiteStore: mkdir %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history.NewSQLiteStore: open %q: %w", path, err)
	}
	// SQLite es single-writer; una sola conexión elimina además la
	// carrera lookup/upsert entre corridas concurrentes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history.NewSQLiteStore: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// AddProjects hace upsert en lote dentro de una transacción.
func (s *SQLiteStore) AddProjects(ctx context.Context, projects []domain.HistoricalProject) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("history.AddProjects: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO historical_projects
			(client_name, project_name, bu, amount, close_date,
			 lead_time, payment_terms, probability, paid_in_advance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_name, project_name, close_date) DO UPDATE SET
			bu              = excluded.bu,
			amount          = excluded.amount,
			lead_time       = excluded.lead_time,
			payment_terms   = excluded.payment_terms,
			probability     = excluded.probability,
			paid_in_advance = excluded.paid_in_advance
	`)
	if err != nil {
		return 0, fmt.Errorf("history.AddProjects: prepare: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, p := range projects {
		if p.ClientName == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			p.ClientName, p.ProjectName, p.BU, p.Amount,
			p.CloseDate.Format(dateFormat), p.LeadTime,
			p.PaymentTerms, p.Probability, p.PaidInAdvance,
		); err != nil {
			return added, fmt.Errorf("history.AddProjects: upsert %q: %w", p.ProjectName, err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return added, fmt.Errorf("history.AddProjects: commit: %w", err)
	}
	return added, nil
}

// PaymentTerms devuelve el término de pago más común del cliente.
// Empates se rompen por el close date más reciente.
func (s *SQLiteStore) PaymentTerms(ctx context.Context, clientName string) (string, bool, error) {
	var terms string
	err := s.db.QueryRowContext(ctx, `
		SELECT payment_terms
		FROM historical_projects
		WHERE client_name = ? AND payment_terms IS NOT NULL AND payment_terms != ''
		GROUP BY payment_terms
		ORDER BY COUNT(*) DESC, MAX(close_date) DESC
		LIMIT 1
	`, clientName).Scan(&terms)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("history.PaymentTerms: %q: %w", clientName, err)
	}
	return terms, true, nil
}

// AverageLeadTime devuelve el lead time promedio del cliente,
// opcionalmente restringido a proyectos de monto similar (±50%).
func (s *SQLiteStore) AverageLeadTime(ctx context.Context, clientName string, amount float64) (float64, bool, error) {
	var avg sql.NullFloat64
	var err error

	if amount > 0 {
		err = s.db.QueryRowContext(ctx, `
			SELECT AVG(lead_time)
			FROM historical_projects
			WHERE client_name = ? AND lead_time > 0
			  AND amount BETWEEN ? AND ?
		`, clientName, amount*0.5, amount*1.5).Scan(&avg)
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT AVG(lead_time)
			FROM historical_projects
			WHERE client_name = ? AND lead_time > 0
		`, clientName).Scan(&avg)
	}
	if err != nil {
		return 0, false, fmt.Errorf("history.AverageLeadTime: %q: %w", clientName, err)
	}
	if !avg.Valid || avg.Float64 <= 0 {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// ClientHistory devuelve el resumen histórico completo del cliente.
func (s *SQLiteStore) ClientHistory(ctx context.Context, clientName string) (domain.ClientHistory, bool, error) {
	var (
		count    int
		avgLead  sql.NullFloat64
		avgAmt   sql.NullFloat64
		lastDate sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(lead_time), AVG(amount), MAX(close_date)
		FROM historical_projects
		WHERE client_name = ?
	`, clientName).Scan(&count, &avgLead, &avgAmt, &lastDate)
	if err != nil {
		return domain.ClientHistory{}, false, fmt.Errorf("history.ClientHistory: %q: %w", clientName, err)
	}
	if count == 0 {
		return domain.ClientHistory{}, false, nil
	}

	terms, ok, err := s.PaymentTerms(ctx, clientName)
	if err != nil {
		return domain.ClientHistory{}, false, err
	}
	if !ok {
		terms = ""
	}

	h := domain.ClientHistory{
		ClientName:      clientName,
		MostCommonTerms: terms,
		AverageLeadTime: avgLead.Float64,
		ProjectCount:    count,
		AverageAmount:   avgAmt.Float64,
	}
	if lastDate.Valid {
		if t, err := time.Parse(dateFormat, lastDate.String); err == nil {
			h.LastProjectDate = t
		}
	}
	return h, true, nil
}

// ClientDefaults devuelve los overrides manuales del cliente.
func (s *SQLiteStore) ClientDefaults(ctx context.Context, clientName string) (domain.ClientDefaults, bool, error) {
	var d domain.ClientDefaults
	var terms, notes sql.NullString
	var lead sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT client_name, default_payment_terms, default_lead_time, notes
		FROM client_config
		WHERE client_name = ?
	`, clientName).Scan(&d.ClientName, &terms, &lead, &notes)
	if err == sql.ErrNoRows {
		return domain.ClientDefaults{}, false, nil
	}
	if err != nil {
		return domain.ClientDefaults{}, false, fmt.Errorf("history.ClientDefaults: %q: %w", clientName, err)
	}
	d.DefaultPaymentTerms = terms.String
	d.DefaultLeadTime = lead.Float64
	d.Notes = notes.String
	return d, true, nil
}

// SetClientDefaults registra o reemplaza los overrides del cliente.
func (s *SQLiteStore) SetClientDefaults(ctx context.Context, defaults domain.ClientDefaults) error {
	if defaults.ClientName == "" {
		return fmt.Errorf("history.SetClientDefaults: client name vacío")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_config (client_name, default_payment_terms, default_lead_time, notes, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(client_name) DO UPDATE SET
			default_payment_terms = excluded.default_payment_terms,
			default_lead_time     = excluded.default_lead_time,
			notes                 = excluded.notes,
			updated_at            = CURRENT_TIMESTAMP
	`, defaults.ClientName, defaults.DefaultPaymentTerms, defaults.DefaultLeadTime, defaults.Notes)
	if err != nil {
		return fmt.Errorf("history.SetClientDefaults: %q: %w", defaults.ClientName, err)
	}
	return nil
}

// Stats devuelve cobertura del histórico.
func (s *SQLiteStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	var st domain.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT client_name),
		       COUNT(CASE WHEN payment_terms IS NOT NULL AND payment_terms != '' THEN 1 END),
		       COUNT(CASE WHEN lead_time > 0 THEN 1 END)
		FROM historical_projects
	`).Scan(&st.TotalProjects, &st.UniqueClients, &st.WithPaymentTerms, &st.WithLeadTime)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("history.Stats: %w", err)
	}
	return st, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
