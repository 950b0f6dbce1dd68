package sheets

import (
	"context"

	"purchases/internal/core"
)

// Ports for outbound adapters.
type (
	// TableSource loads the transaction table from an external source.
	TableSource interface {
		// SourceID identifies the source; the table cache is keyed on it.
		SourceID() string
		// Load reads and cleans the whole dataset. Failures are returned as
		// *core.DataLoadError.
		Load(ctx context.Context) (*core.Table, error)
	}

	// TableWriter persists a cleaned table, replacing any previous snapshot.
	TableWriter interface {
		SaveTable(ctx context.Context, t *core.Table) (int, error)
	}
)
