package interfaces

import (
	"context"

	"github.com/m-mizutani/harvest/pkg/domain/model"
)

// ImportUseCase defines the dataset import pipeline
type ImportUseCase interface {
	// Import fetches the archive named by reference, extracts each row into
	// datasetDir and returns the aggregated summary. Per-row problems are
	// collected in the summary; only reference/fetch/validation/decode
	// failures return an error.
	Import(ctx context.Context, datasetDir, reference string) (*model.ImportResult, error)
}
