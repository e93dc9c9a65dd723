package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/hyperkit/errors"
)

// EnvPrefix prefixes every environment variable the loader reads, e.g.
// HYPER_URL or HYPER_CACHE_ENABLED.
const EnvPrefix = "HYPER"

// FileSystem abstracts file access so tests can fake it.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem on the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver finds the settings and .env files for a named target.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the chosen file paths. Empty means none found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when given, otherwise the first
// existing candidate.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(configCandidates(name))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(envCandidates(name))
	}
	return resolved
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

func configCandidates(name string) []string {
	var paths []string
	for _, dir := range []string{".", "./config", ".."} {
		for _, base := range []string{name + ".yml", name + ".yaml", "env.yml", "config.yml"} {
			paths = append(paths, dir+"/"+base)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, fmt.Sprintf("%s/.config/%s/config.yml", home, name))
	}
	return paths
}

func envCandidates(name string) []string {
	return []string{
		"./.env." + name,
		"./.env",
		"../.env",
	}
}

// LoaderConfig holds the loader dependencies and file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption configures Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit settings file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// settingKeys are registered with viper so AutomaticEnv can see them
// during Unmarshal.
var settingKeys = []string{
	"url", "host", "port",
	"token", "access_key", "secret_key", "username", "password",
	"insecure", "ca_file", "strict",
	"retries", "timeout", "wait_timeout",
	"rate_limit", "breaker_failures", "breaker_cooldown",
	"cache.enabled", "cache.dir", "cache.ttl",
	"logging.level", "logging.format", "logging.output", "logging.no_color",
	"logging.timestamp", "logging.caller",
	"telemetry.endpoint", "telemetry.insecure", "telemetry.sample_rate",
}

// Load fills s from, in increasing precedence, its current values, the
// settings file, the .env file and HYPER_* environment variables. Defaults
// are applied afterwards; validation is left to the caller.
func Load(name string, s *Settings, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	files := (&Resolver{FileSystem: lc.FileSystem}).ResolveFiles(name, lc)

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range settingKeys {
		if err := v.BindEnv(key); err != nil {
			return errors.Configuration("bind "+key, err)
		}
	}

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Configuration("read settings file "+files.ConfigFile, err)
		}
	}

	// godotenv never overrides variables already present in the process.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return errors.Configuration("load env file "+files.EnvFile, err)
		}
	}

	if err := v.Unmarshal(s); err != nil {
		return errors.Configuration("decode settings for "+name, err)
	}
	s.ApplyDefaults()
	return nil
}
