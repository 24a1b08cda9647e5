package interfaces

import (
	"context"

	"github.com/m-mizutani/harvest/pkg/domain/model"
)

// TableDecoder turns a validated parquet buffer into rows. Implementations
// may cross a process boundary; failure is always fatal to the run.
type TableDecoder interface {
	Decode(ctx context.Context, buf []byte) ([]model.TableRow, error)
}
