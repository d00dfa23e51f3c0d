package storage

import (
	"context"
	"fmt"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/config"
)

// Open returns the backend selected by STORAGE_BACKEND.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.DBType {
	case "file":
		s, err := NewFileStorage(cfg.FilePatients, cfg.FileMedicines, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "bolt":
		s, err := NewBoltStorage(cfg.BoltPath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStorage(ctx, cfg.DBDSN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.DBType)
	}
}
