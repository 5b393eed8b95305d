package ports

import (
	"context"

	"github.com/angel88c/rolling-forecast-sub000/internal/domain"
)

// Reporter presenta el resultado de una corrida del pipeline.
type Reporter interface {
	Report(ctx context.Context, result domain.RunResult) error
}
