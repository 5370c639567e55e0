package driver

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/naml-lang/namlc/internal/ast"
	"github.com/naml-lang/namlc/internal/diag"
	"github.com/naml-lang/namlc/internal/parser"
	"github.com/naml-lang/namlc/internal/types"
)

// formatter renders diagnostics with the same Rust-style formatting the
// teacher's standalone formatDiagnostic helper used.
var formatter = diag.NewFormatter()

// PrintDiagnostic normalizes a diagnostic's primary span before formatting
// it to stderr.
func PrintDiagnostic(d diag.Diagnostic) {
	if len(d.LabeledSpans) > 0 && !d.Span.IsValid() {
		for _, ls := range d.LabeledSpans {
			if ls.Style == "primary" {
				d.Span = ls.Span
				break
			}
		}
		if !d.Span.IsValid() && len(d.LabeledSpans) > 0 {
			d.Span = d.LabeledSpans[0].Span
		}
	}
	formatter.Format(d)
}

// Parse reads and parses filename, reporting every parser diagnostic
// before returning a sentinel error if any occurred.
func (p *Pipeline) Parse(src, filename string) (*ast.File, error) {
	pp := parser.New(src, parser.WithFilename(filename))
	file := pp.ParseFile()

	if len(pp.Errors()) == 0 {
		return file, nil
	}

	for _, perr := range pp.Errors() {
		span := diag.Span{
			Filename: perr.Span.Filename,
			Line:     perr.Span.Line,
			Column:   perr.Span.Column,
			Start:    perr.Span.Start,
			End:      perr.Span.End,
		}
		code := perr.Code
		if code == "" {
			code = diag.Code("PARSE_ERROR")
		}
		d := diag.Diagnostic{
			Stage:    diag.StageParser,
			Severity: perr.Severity,
			Code:     code,
			Message:  perr.Message,
			Span:     span,
			Help:     perr.Help,
			Notes:    perr.Notes,
		}
		if perr.PrimaryLabel != "" && span.IsValid() {
			d = d.WithPrimarySpan(span, perr.PrimaryLabel)
		} else if span.IsValid() {
			d = d.WithPrimarySpan(span, "")
		}
		for _, sec := range perr.SecondarySpans {
			secSpan := diag.Span{
				Filename: sec.Span.Filename,
				Line:     sec.Span.Line,
				Column:   sec.Span.Column,
				Start:    sec.Span.Start,
				End:      sec.Span.End,
			}
			if secSpan.IsValid() {
				d = d.WithSecondarySpan(secSpan, sec.Label)
			}
		}
		PrintDiagnostic(d)
	}
	return nil, errors.New("parse failed")
}

// Check type-checks file, resolving filename to an absolute path first so
// module imports resolve the same way regardless of the caller's cwd.
func (p *Pipeline) Check(file *ast.File, filename string) (*types.Checker, error) {
	checker := types.NewChecker()

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		absFilename = filename
	}
	checker.CheckWithFilename(file, absFilename)

	if len(checker.Errors) == 0 {
		return checker, nil
	}
	for _, d := range checker.Errors {
		PrintDiagnostic(d)
	}
	return nil, errors.New("type check failed")
}
