package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ngantchou/warap-ai-sub004/core/dispatch"
	"github.com/ngantchou/warap-ai-sub004/core/matching"
	"github.com/ngantchou/warap-ai-sub004/core/metrics"
	"github.com/ngantchou/warap-ai-sub004/infra/mqtt"
)

// Config aggregates the settings of every subsystem.
type Config struct {
	MQTT     mqtt.Config     `json:"mqtt"`
	Matching matching.Config `json:"matching"`
	Dispatch dispatch.Config `json:"dispatch"`
	Metrics  metrics.Config  `json:"metrics"`
}

// Load reads the configuration file at path, applies W_ environment
// overrides and fills in defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. W_MQTT__BROKER.
	if err := k.Load(env.Provider("W_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "w_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.MQTT.SetDefaults()
	cfg.Matching.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	if err := cfg.Matching.Validate(); err != nil {
		return nil, fmt.Errorf("matching: %w", err)
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	return &cfg, nil
}
