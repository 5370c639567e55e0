// Command namlc is the naml compiler/toolchain entry point: build and run
// programs through either the AOT pipeline (MIR -> LLVM IR -> llc -> clang
// link against runtime.c + Boehm GC) or the JIT interpreter in
// internal/ir, and serve the language server. The fmt subcommand is a
// placeholder that reports the file name without reformatting it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/naml-lang/namlc/internal/driver"
	"github.com/naml-lang/namlc/internal/lsp"
	"github.com/naml-lang/namlc/internal/mir"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

var (
	flagConfig  string
	flagDebug   bool
	flagOpt     string
	flagTriple  string
	flagTimeout int
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "namlc",
		Short:         "naml compiler and toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a namlc config file (default: ./namlc.yaml if present)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable verbose phase-by-phase logging")
	root.PersistentFlags().StringVar(&flagOpt, "opt", "", "LLVM optimization level (0-3, default from config)")
	root.PersistentFlags().StringVar(&flagTriple, "target", "", "LLVM target triple (default from config)")
	root.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "per-tool-invocation timeout in seconds (default from config)")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newJITCmd())
	root.AddCommand(newFmtCmd())
	root.AddCommand(newLSPCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// newPipeline loads config (CLI flags override the config file/environment)
// and builds a driver.Pipeline, closing over the command's own flags.
func newPipeline() (*driver.Pipeline, error) {
	cfg, err := driver.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDebug {
		cfg.Debug = true
	}
	if flagOpt != "" {
		cfg.OptLevel = flagOpt
	}
	if flagTriple != "" {
		cfg.TargetTriple = flagTriple
	}
	if flagTimeout != 0 {
		cfg.Timeout = flagTimeout
	}
	return driver.NewPipeline(cfg)
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <file>",
		Short: "compile a naml source file to a native binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			module, err := p.CompileFile(filename)
			if err != nil {
				return err
			}

			outName := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
			if err := buildBinary(p, module, filename, outName); err != nil {
				return err
			}
			fmt.Printf("build successful: %s\n", outName)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var jit bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "compile and run a naml source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			module, err := p.CompileFile(filename)
			if err != nil {
				return err
			}

			if jit {
				_, err := p.RunJIT(module, "main")
				return err
			}

			tmpBinary, err := os.CreateTemp("", "namlc_bin_*")
			if err != nil {
				return fmt.Errorf("creating temp binary: %w", err)
			}
			tmpBinary.Close()
			defer os.Remove(tmpBinary.Name())

			if err := buildBinary(p, module, filename, tmpBinary.Name()); err != nil {
				return err
			}
			return p.RunBinary(tmpBinary.Name())
		},
	}
	cmd.Flags().BoolVar(&jit, "jit", false, "interpret the program directly instead of compiling to a native binary")
	return cmd
}

func newJITCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jit <file>",
		Short: "interpret a naml source file directly, without LLVM or a system C compiler",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			defer p.Close()

			module, err := p.CompileFile(filename)
			if err != nil {
				return err
			}
			_, err = p.RunJIT(module, "main")
			return err
		},
	}
}

// buildBinary runs the AOT backend's codegen/optimize/compile/link phases,
// shared by `build` and the non-JIT `run` path.
func buildBinary(p *driver.Pipeline, module *mir.Module, filename, outPath string) error {
	llvmIR, err := p.GenerateLLVM(module)
	if err != nil {
		return err
	}

	tmpIR, err := os.CreateTemp("", "namlc_*.ll")
	if err != nil {
		return fmt.Errorf("creating temp IR file: %w", err)
	}
	defer os.Remove(tmpIR.Name())
	if _, err := tmpIR.WriteString(llvmIR); err != nil {
		tmpIR.Close()
		return fmt.Errorf("writing LLVM IR: %w", err)
	}
	tmpIR.Close()

	irFile, err := p.OptimizeLLVM(tmpIR.Name())
	if err != nil {
		return err
	}
	if irFile != tmpIR.Name() {
		defer os.Remove(irFile)
	}

	objFile, err := p.CompileObject(irFile)
	if err != nil {
		return err
	}
	defer os.Remove(objFile)

	return p.LinkBinary(filename, objFile, outPath)
}

func newFmtCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "format a naml source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				return formatFile(args[0])
			}
			return watchAndFormat(args[0])
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-format the file whenever it changes on disk")
	return cmd
}

func formatFile(path string) error {
	fmt.Printf("formatting %s... (not implemented)\n", path)
	return nil
}

// watchAndFormat re-runs formatFile every time path changes on disk, using
// fsnotify to watch the file's directory.
func watchAndFormat(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	if err := formatFile(path); err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			changed, _ := filepath.Abs(event.Name)
			if changed != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if err := formatFile(path); err != nil {
					fmt.Fprintf(os.Stderr, "format error: %v\n", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "start the language server protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewServer()
			return server.Run(context.Background())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("namlc version %s\n", version)
			return nil
		},
	}
}
