// Package config loads and validates the YAML server configuration.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const configSchema = `{
	"type": "object",
	"properties": {
		"server": {
			"type": "object",
			"properties": {
				"host": {"type": "string"},
				"port": {"type": "integer", "minimum": 1, "maximum": 65535},
				"allowed_origins": {"type": "array", "items": {"type": "string"}},
				"rate_limit": {"type": "integer", "minimum": 0}
			}
		},
		"database": {
			"type": "object",
			"required": ["url"],
			"properties": {
				"url": {"type": "string", "minLength": 1}
			}
		},
		"geoip": {
			"type": "object",
			"properties": {
				"database": {"type": "string"}
			}
		},
		"plugins": {
			"type": "object",
			"properties": {
				"directory": {"type": "string"}
			}
		},
		"logging": {
			"type": "object",
			"properties": {
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
				"format": {"type": "string", "enum": ["text", "json"]}
			}
		}
	},
	"required": ["database"]
}`

// Config is the server configuration.
type Config struct {
	Server struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RateLimit      int      `yaml:"rate_limit"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	GeoIP struct {
		Database string `yaml:"database"`
	} `yaml:"geoip"`
	Plugins struct {
		Directory string `yaml:"directory"`
	} `yaml:"plugins"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads, validates and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(raw)
}

// Parse validates and decodes raw YAML configuration.
func Parse(raw []byte) (*Config, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	verdict, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if !verdict.Valid() {
		var result *multierror.Error
		for _, issue := range verdict.Errors() {
			result = multierror.Append(result, fmt.Errorf("config: %s", issue))
		}
		return nil, result.ErrorOrNil()
	}
	cfg := defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 120
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}
