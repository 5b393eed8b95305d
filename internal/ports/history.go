package ports

import (
	"context"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// HistoryStore es el repositorio histórico de clientes. El pipeline lo
// consulta para completar datos faltantes y lo realimenta con cada
// archivo procesado.
//
// Los misses de lookup NO son errores: se devuelve ok=false y el
// pipeline cae a los defaults deterministas.
type HistoryStore interface {
	// AddProjects hace upsert en lote (único por cliente+proyecto+close
	// date, last-write-wins) y devuelve cuántos registros escribió.
	AddProjects(ctx context.Context, projects []domain.HistoricalProject) (int, error)

	// PaymentTerms devuelve el término de pago más común del cliente;
	// empates se rompen por close date más reciente.
	PaymentTerms(ctx context.Context, clientName string) (string, bool, error)

	// AverageLeadTime devuelve el lead time promedio del cliente. Si
	// amount > 0 solo considera proyectos con monto en ±50% del dado.
	AverageLeadTime(ctx context.Context, clientName string, amount float64) (float64, bool, error)

	// ClientHistory devuelve el resumen histórico completo del cliente.
	ClientHistory(ctx context.Context, clientName string) (domain.ClientHistory, bool, error)

	// ClientDefaults devuelve los overrides manuales del cliente.
	ClientDefaults(ctx context.Context, clientName string) (domain.ClientDefaults, bool, error)

	// SetClientDefaults registra o reemplaza los overrides del cliente.
	SetClientDefaults(ctx context.Context, defaults domain.ClientDefaults) error

	// Stats devuelve cobertura del histórico para reporting.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// Close cierra el repositorio limpiamente.
	Close() error
}
