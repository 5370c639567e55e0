package driver

import (
	"go.uber.org/zap"
)

// Pipeline carries a compile run's shared state across phases: its
// resolved Config and a structured logger. cmd/namlc constructs one per
// invocation and calls its phase methods in order.
type Pipeline struct {
	Config *Config
	Log    *zap.Logger
}

// NewPipeline builds a Pipeline with a zap logger in production mode
// (JSON, info level) unless cfg.Debug asks for development mode (console
// encoding, debug level) - the same level split the teacher's MALPHAS_DEBUG
// env var used to gate with ad hoc fmt.Fprintf calls.
func NewPipeline(cfg *Config) (*Pipeline, error) {
	var logger *zap.Logger
	var err error
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &Pipeline{Config: cfg, Log: logger}, nil
}

// Close flushes the logger's buffered output.
func (p *Pipeline) Close() {
	_ = p.Log.Sync()
}
