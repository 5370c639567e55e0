package driver

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/naml-lang/namlc/internal/mir"
)

// CompileFile runs the parse -> check -> lower -> monomorphize phases for
// filename, the prefix shared by every cmd/namlc subcommand regardless of
// which backend (AOT or JIT) consumes the resulting MIR module.
func (p *Pipeline) CompileFile(filename string) (*mir.Module, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}

	p.Log.Debug("parsing", zap.String("file", filename))
	file, err := p.Parse(string(src), filename)
	if err != nil {
		return nil, err
	}

	p.Log.Debug("type checking", zap.String("file", filename))
	checker, err := p.Check(file, filename)
	if err != nil {
		return nil, err
	}

	return p.Lower(file, checker)
}
