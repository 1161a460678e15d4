package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"doc_archiver/internal/domain"
)

// Exporter pushes the local catalog into the Postgres mirror. Each entry is
// written in its own transaction so a failure mid-export leaves complete
// entries behind, never a torn one.
type Exporter struct {
	entries *EntryStore
	tx      *TransactionManager
	logger  *slog.Logger
}

func NewExporter(entries *EntryStore, tx *TransactionManager, logger *slog.Logger) *Exporter {
	return &Exporter{
		entries: entries,
		tx:      tx,
		logger:  logger,
	}
}

func (e *Exporter) Export(ctx context.Context, entries []domain.CatalogEntry) (int, error) {
	exported := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}

		err := e.tx.WithTransaction(ctx, func(ctx context.Context) error {
			id, err := e.entries.Upsert(ctx, entry)
			if err != nil {
				return fmt.Errorf("upsert entry: %w", err)
			}
			if err := e.entries.ReplaceSources(ctx, id, entry.Sources); err != nil {
				return fmt.Errorf("replace sources: %w", err)
			}
			if err := e.entries.ReplaceTags(ctx, id, entry.Tags); err != nil {
				return fmt.Errorf("replace tags: %w", err)
			}
			return nil
		})
		if err != nil {
			return exported, fmt.Errorf("export %s: %w", entry.ID, err)
		}

		exported++
	}

	e.logger.Info("catalog exported", "entries", exported)
	return exported, nil
}
