package internal

import (
	"io"

	"github.com/DreamCats/movierec/internal/config"
	"github.com/DreamCats/movierec/internal/logging"
)

// SetupLogging configures the global logger for a subcommand. When log.dir
// is set every entry is also written to a per-run file. The returned closer
// is never nil.
func SetupLogging(cfg *config.Config, subcommand string) (io.Closer, error) {
	logCfg := logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}

	if cfg.Log.Dir == "" {
		logging.Init(logCfg)
		return nopCloser{}, nil
	}

	f, path, err := logging.OpenFile(cfg.Log.Dir, subcommand, cfg.Database.Path)
	if err != nil {
		logging.Init(logCfg)
		return nopCloser{}, err
	}
	logCfg.File = f
	logging.Init(logCfg)
	logging.Debug().Str("path", path).Msg("Log file opened")
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
