package datasource

import (
	"github.com/navikt/studyroom/internal/config"
	"go.uber.org/zap"
)

// New builds the data source selected by the configuration. The choice
// between live and fixture data is made once, here.
func New(cfg config.APIConfig, logger *zap.Logger, metrics *Metrics) DataSource {
	if logger == nil {
		logger = zap.NewNop()
	}

	var ds DataSource
	switch {
	case cfg.UseMock:
		logger.Info("using fixture data source")
		ds = NewFixtureDataSource()
	case !cfg.IsRemoteConfigured():
		logger.Warn("no backend URL configured, using fixture data source")
		ds = NewFixtureDataSource()
	case cfg.FallbackToMock:
		logger.Info("using remote data source with fixture fallback", zap.String("url", cfg.BaseURL))
		fallback := NewFallbackDataSource(NewRemoteDataSource(cfg.BaseURL, cfg.Timeout, logger), NewFixtureDataSource(), logger)
		if metrics != nil {
			fallback.OnFallback(metrics.ObserveFallback)
		}
		ds = fallback
	default:
		logger.Info("using remote data source", zap.String("url", cfg.BaseURL))
		ds = NewRemoteDataSource(cfg.BaseURL, cfg.Timeout, logger)
	}

	if metrics != nil {
		ds = Instrument(ds, metrics)
	}
	return ds
}
