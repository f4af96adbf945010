package repository

import (
	"fmt"

	"github.com/navikt/studyroom/internal/config"
	"github.com/navikt/studyroom/internal/repository/file"
	"github.com/navikt/studyroom/internal/repository/memory"
	"github.com/navikt/studyroom/internal/repository/redis"
	"go.uber.org/zap"
)

// NewRepository creates the store selected by the configuration:
// Redis when enabled, a file store when a path is set, memory otherwise.
func NewRepository(cfg config.StoreConfig, logger *zap.Logger) (Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Redis.Enabled {
		repo, err := redis.NewRepository(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis repository: %w", err)
		}
		logger.Info("using Redis session store", zap.String("prefix", cfg.Redis.KeyPrefix))
		return repo, nil
	}

	if cfg.Path != "" {
		repo, err := file.NewRepository(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create file repository: %w", err)
		}
		logger.Info("using file session store", zap.String("path", cfg.Path))
		return repo, nil
	}

	logger.Info("using in-memory session store")
	return memory.NewRepository(), nil
}
