package interfaces

import (
	"context"

	"github.com/m-mizutani/harvest/pkg/domain/model"
)

// HubClient downloads files from the remote hub
type HubClient interface {
	// Fetch resolves ref to raw bytes, walking the namespace/auth fallback
	// chain as needed
	Fetch(ctx context.Context, ref *model.Reference) (*model.FetchResult, error)

	// FetchFile fetches another path from the same repository as ref, used
	// for rows that reference their image by path instead of embedding it
	FetchFile(ctx context.Context, ref *model.Reference, path string) (*model.FetchResult, error)
}
