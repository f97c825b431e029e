package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "BRIA_"
	EnvConfigFile = "BRIA_CONFIG"
)

// nestedSections are config blocks addressable from env as BRIA_<SECTION>_<KEY>.
var nestedSections = []string{"cue", "source"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BRIA_CONFIG is set
//  3. env (prefix BRIA_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BRIA_SAMPLE_RATE -> sample_rate, BRIA_CUE_FREQUENCY_HZ -> cue.frequency_hz.
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Collections present in a layer replace the defaults instead of merging.
	if k.Exists("channels") {
		cfg.Channels = nil
	}
	if k.Exists("channel_names") {
		cfg.ChannelNames = nil
	}
	if k.Exists("phases") {
		cfg.Phases = nil
	}
	if k.Exists("event_labels") {
		cfg.EventLabels = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	_ = ctx
	return &cfg, nil
}

// envKey maps an environment variable name to a koanf key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		// BRIA_CONFIG names the file, it is not a setting.
		return ""
	}
	for _, section := range nestedSections {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}
