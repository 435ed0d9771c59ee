// Package config loads modlink's configuration: embedded defaults,
// overridden by a project's .modlink.toml, overridden by MODLINK_*
// environment variables.
package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	modlinkerrors "github.com/arthur-debert/modlink/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// ProjectConfigFile is the per-project override file name.
const ProjectConfigFile = ".modlink.toml"

// Config is the loaded configuration.
type Config struct {
	// StoreDir is the content store location.
	StoreDir string
	// Concurrency caps parallel filesystem operations while linking.
	Concurrency int
	// GlobalBinDir receives root bins for global installs.
	GlobalBinDir string
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load builds the configuration for a project directory. Precedence,
// lowest first: embedded defaults, <projectDir>/.modlink.toml,
// MODLINK_* environment variables.
func Load(projectDir string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, modlinkerrors.Wrap(err, modlinkerrors.ErrConfigLoad, "failed to load defaults")
	}

	projectConfig := filepath.Join(projectDir, ProjectConfigFile)
	if _, err := os.Stat(projectConfig); err == nil {
		if err := k.Load(file.Provider(projectConfig), toml.Parser()); err != nil {
			return nil, modlinkerrors.Wrapf(err, modlinkerrors.ErrConfigLoad,
				"failed to load %s", projectConfig)
		}
	}

	if err := k.Load(env.Provider("MODLINK_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "MODLINK_")), "_", ".")
	}), nil); err != nil {
		return nil, modlinkerrors.Wrap(err, modlinkerrors.ErrConfigLoad, "failed to load environment")
	}

	cfg := &Config{
		StoreDir:     k.String("store.dir"),
		Concurrency:  k.Int("link.concurrency"),
		GlobalBinDir: k.String("bin.global.dir"),
	}

	if cfg.StoreDir == "" {
		cfg.StoreDir = filepath.Join(xdg.DataHome, "modlink", "store")
	}
	if cfg.GlobalBinDir == "" {
		cfg.GlobalBinDir = xdg.BinHome
	}
	if cfg.Concurrency <= 0 {
		return nil, modlinkerrors.Newf(modlinkerrors.ErrConfigValid,
			"link.concurrency must be positive, got %d", cfg.Concurrency)
	}

	return cfg, nil
}
