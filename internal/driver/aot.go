package driver

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	mir2llvm "github.com/naml-lang/namlc/internal/codegen/mir2llvm"
	"github.com/naml-lang/namlc/internal/mir"
)

// GenerateLLVM lowers module to LLVM IR text via internal/codegen/mir2llvm,
// surfacing any codegen diagnostics it collected even when Generate itself
// didn't return an error.
func (p *Pipeline) GenerateLLVM(module *mir.Module) (string, error) {
	gen := mir2llvm.NewGenerator()
	ir, err := gen.Generate(module)
	if err != nil {
		for _, d := range gen.Errors {
			PrintDiagnostic(d)
		}
		return "", errors.Wrap(err, "MIR-to-LLVM codegen")
	}
	if len(gen.Errors) > 0 {
		for _, d := range gen.Errors {
			PrintDiagnostic(d)
		}
		return "", errors.Errorf("MIR-to-LLVM codegen failed with %d error(s)", len(gen.Errors))
	}
	return ir, nil
}

// findTool looks up an LLVM tool on PATH, then under the Homebrew prefixes
// a source build is commonly found at - the teacher's own fallback search,
// generalized to any LLVM binary instead of being copy-pasted per tool.
func findTool(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	prefixes := []string{"/opt/homebrew", "/usr/local"}
	if brewPrefix := os.Getenv("HOMEBREW_PREFIX"); brewPrefix != "" {
		prefixes = []string{brewPrefix}
	}
	for _, prefix := range prefixes {
		candidate := filepath.Join(prefix, "opt/llvm/bin", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.Errorf("%s not found in PATH or common installation locations", name)
}

// OptimizeLLVM runs `opt` over irFile at the configured optimization
// level, returning the optimized file's path - or irFile unchanged if opt
// isn't installed or the pass fails, since optimization is never required
// for correctness.
func (p *Pipeline) OptimizeLLVM(irFile string) (string, error) {
	optPath, err := findTool("opt")
	if err != nil {
		p.Log.Debug("opt not found, skipping optimization")
		return irFile, nil
	}

	var pipeline string
	switch p.Config.OptLevel {
	case "0", "none":
		return irFile, nil
	case "1", "s":
		pipeline = "default<O1>"
	case "3", "z":
		pipeline = "default<O3>"
	default:
		pipeline = "default<O2>"
	}

	optFile := irFile + ".opt"
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.Config.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, optPath, "-S", "-o", optFile, "-passes="+pipeline, irFile)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		p.Log.Debug("LLVM optimization failed, using unoptimized IR", zap.Error(err), zap.String("stderr", stderr.String()))
		return irFile, nil
	}
	return optFile, nil
}

// CompileObject runs `llc` over irFile, producing a native object file.
func (p *Pipeline) CompileObject(irFile string) (string, error) {
	llcPath, err := findTool("llc")
	if err != nil {
		return "", errors.Wrap(err, "LLVM backend requires 'llc' to be installed (brew install llvm, or ensure llc is on PATH)")
	}

	objFile := irFile + ".o"
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.Config.Timeout)*time.Second)
	defer cancel()

	p.Log.Debug("compiling LLVM IR to object file", zap.String("ir", irFile), zap.String("obj", objFile))
	cmd := exec.CommandContext(ctx, llcPath, "-filetype=obj", "-mtriple="+p.Config.TargetTriple, "-o", objFile, irFile)
	var stderr strings.Builder
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "llc failed: %s", stderr.String())
	}
	return objFile, nil
}

// resolveRuntimeC locates runtime.c relative to the source file, the
// configured RuntimeDir, or the running executable's own directory, in
// that order - mirroring the search the teacher's runBuild/runRun did
// inline, now shared between both AOT entry points.
func (p *Pipeline) resolveRuntimeC(sourceFile string) (runtimeC, runtimeObj string, found bool) {
	candidates := []string{
		filepath.Join(filepath.Dir(sourceFile), "..", "runtime", "runtime.c"),
		filepath.Join(p.Config.RuntimeDir, "runtime.c"),
	}
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exePath), "..", "runtime", "runtime.c"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, c + ".o", true
		}
	}
	return "", "", false
}

// gcIncludeDir locates Boehm GC's headers, preferring the configured path.
func (p *Pipeline) gcIncludeDir() string {
	if p.Config.GCIncludeDir != "" {
		return p.Config.GCIncludeDir
	}
	prefixes := []string{"/opt/homebrew", "/usr/local"}
	if brewPrefix := os.Getenv("HOMEBREW_PREFIX"); brewPrefix != "" {
		prefixes = []string{brewPrefix}
	}
	for _, prefix := range prefixes {
		if _, err := os.Stat(prefix + "/opt/bdw-gc/include/gc/gc.h"); err == nil {
			return prefix + "/opt/bdw-gc/include"
		}
		if _, err := os.Stat(prefix + "/include/gc/gc.h"); err == nil {
			return prefix + "/include"
		}
	}
	return ""
}

// gcLibDir locates Boehm GC's library directory, preferring the configured
// path.
func (p *Pipeline) gcLibDir() string {
	if p.Config.GCLibDir != "" {
		return p.Config.GCLibDir
	}
	prefixes := []string{"/opt/homebrew", "/usr/local"}
	if brewPrefix := os.Getenv("HOMEBREW_PREFIX"); brewPrefix != "" {
		prefixes = []string{brewPrefix}
	}
	for _, prefix := range prefixes {
		if _, err := os.Stat(prefix + "/lib/libgc.a"); err == nil {
			return prefix + "/lib"
		}
	}
	return ""
}

// LinkBinary compiles runtime.c (if found) against Boehm GC and links it
// with objFile into outPath. Without a runtime.c, it links objFile alone
// against GC, which will fail at link time if the object references any
// runtime_* symbol - the same degraded mode the teacher's code fell back
// to rather than hard-failing before the link was even attempted.
func (p *Pipeline) LinkBinary(sourceFile, objFile, outPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.Config.Timeout)*time.Second)
	defer cancel()

	runtimeC, runtimeObj, ok := p.resolveRuntimeC(sourceFile)
	linkArgs := []string{"-o", outPath, objFile}

	if ok {
		compileArgs := []string{"-c", "-o", runtimeObj, runtimeC}
		if inc := p.gcIncludeDir(); inc != "" {
			compileArgs = append(compileArgs, "-I"+inc)
		}
		p.Log.Debug("compiling runtime", zap.String("runtime.c", runtimeC))
		cmd := exec.CommandContext(ctx, "clang", compileArgs...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return errors.Wrap(err, "runtime compilation failed (Boehm GC must be installed: libgc-dev on Ubuntu, bdw-gc on Homebrew)")
		}
		defer os.Remove(runtimeObj)
		linkArgs = append(linkArgs, runtimeObj)
	} else {
		p.Log.Warn("runtime.c not found, linking without runtime library")
	}

	linkArgs = append(linkArgs, "-lgc")
	if lib := p.gcLibDir(); lib != "" {
		linkArgs = append(linkArgs, "-L"+lib)
	}
	linkArgs = append(linkArgs, "-pthread")

	p.Log.Debug("linking binary", zap.String("out", outPath))
	cmd := exec.CommandContext(ctx, "clang", linkArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "linking failed (LLVM backend requires 'clang' to be installed)")
	}
	return nil
}

// RunBinary executes path with a timeout, streaming its stdio through.
func (p *Pipeline) RunBinary(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.Config.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Errorf("execution timed out after %ds", p.Config.Timeout)
		}
		return err
	}
	return nil
}
