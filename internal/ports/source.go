package ports

import "github.com/angel88c/rolling-forecast-sub000/internal/domain"

// WorkbookSource entrega la tabla normalizada del funnel. La
// implementación real lee xlsx; los tests inyectan tablas en memoria.
type WorkbookSource interface {
	ReadFile(path string) (*domain.Table, domain.IngestReport, error)
}
