// Package driver orchestrates the compiler's phases - parse, check, lower,
// monomorphize, codegen, optimize, then either link-and-run (the AOT path,
// internal/driver/aot.go) or interpret directly (the JIT path,
// internal/driver/jit.go backed by internal/ir). cmd/namlc's subcommands
// are thin wrappers that build a Config and call into a Pipeline here.
package driver

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the compiler's resolved configuration: CLI flags, a config
// file (namlc.yaml / namlc.json, if present), and NAMLC_-prefixed
// environment variables, merged by viper in that precedence order. This
// replaces the teacher's scattered os.Getenv("MALPHAS_*") reads with a
// single typed source of truth.
type Config struct {
	OptLevel     string // "0".."3", matched against opt's -passes=default<Ox>
	TargetTriple string // llc -mtriple
	RuntimeDir   string // directory containing runtime.c
	GCLibDir     string // directory containing libgc, if not on the default linker path
	GCIncludeDir string // directory containing gc/gc.h, if not on the default include path
	Debug        bool   // verbose phase-by-phase logging
	Timeout      int    // seconds, applied to each external tool invocation
}

// LoadConfig builds a Config from defaults, an optional config file at
// configPath (skipped silently if configPath is empty and no namlc.yaml is
// found in the working directory), and NAMLC_-prefixed environment
// variables. CLI flags are applied afterwards by the caller assigning the
// returned Config's fields, so flags always win over file/env.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("opt_level", "2")
	v.SetDefault("target_triple", "x86_64-unknown-linux-gnu")
	v.SetDefault("runtime_dir", "runtime")
	v.SetDefault("debug", false)
	v.SetDefault("timeout", 60)

	v.SetEnvPrefix("NAMLC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "loading config file %s", configPath)
		}
	} else {
		v.SetConfigName("namlc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "loading namlc config")
			}
		}
	}

	return &Config{
		OptLevel:     v.GetString("opt_level"),
		TargetTriple: v.GetString("target_triple"),
		RuntimeDir:   v.GetString("runtime_dir"),
		GCLibDir:     v.GetString("gc_lib_dir"),
		GCIncludeDir: v.GetString("gc_include_dir"),
		Debug:        v.GetBool("debug"),
		Timeout:      v.GetInt("timeout"),
	}, nil
}
