// Package plugin maintains the in-process registry of loaded server plugins.
// Plugins are described by YAML manifests validated against a JSON schema;
// the registry itself is read-only from the API's point of view.
package plugin

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Plugin is one registry entry.
type Plugin struct {
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Authors     []string `json:"authors" yaml:"authors"`
	Homepage    string   `json:"homepage" yaml:"homepage"`
	Version     string   `json:"version" yaml:"version"`
}

const manifestSchema = `{
	"type": "object",
	"required": ["name", "title", "version"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"authors": {"type": "array", "items": {"type": "string"}},
		"homepage": {"type": "string"},
		"version": {"type": "string", "minLength": 1}
	}
}`

// Manager is the process-wide plugin registry, keyed by plugin identifier.
type Manager struct {
	mu      sync.RWMutex
	plugins map[string]*Plugin
	logger  *slog.Logger
}

// NewManager returns an empty registry.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		plugins: make(map[string]*Plugin),
		logger:  logger.With("component", "plugins"),
	}
}

// Register adds a plugin under its name.
func (m *Manager) Register(p *Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("plugin has no name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plugins[p.Name]; ok {
		return fmt.Errorf("plugin %q is already registered", p.Name)
	}
	m.plugins[p.Name] = p
	return nil
}

// LoadDir loads every *.yml / *.yaml manifest in dir. Invalid manifests are
// reported together; valid ones are still registered.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading plugin directory: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(manifestSchema))
	if err != nil {
		return fmt.Errorf("compiling manifest schema: %w", err)
	}
	var result *multierror.Error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")) {
			continue
		}
		plugin, err := loadManifest(filepath.Join(dir, name), schema)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := m.Register(plugin); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		m.logger.Info("loaded plugin", "name", plugin.Name, "version", plugin.Version)
	}
	return result.ErrorOrNil()
}

func loadManifest(path string, schema *gojsonschema.Schema) (*Plugin, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	verdict, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	if !verdict.Valid() {
		var result *multierror.Error
		for _, issue := range verdict.Errors() {
			result = multierror.Append(result, fmt.Errorf("%s", issue))
		}
		return nil, result.ErrorOrNil()
	}
	var plugin Plugin
	if err := yaml.Unmarshal(raw, &plugin); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &plugin, nil
}

// Len returns the current registry size.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// Get returns the plugin registered under name.
func (m *Manager) Get(name string) (*Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[name]
	return p, ok
}

// Sorted returns all plugins ordered by identifier.
func (m *Manager) Sorted() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	plugins := make([]*Plugin, len(names))
	for i, name := range names {
		plugins[i] = m.plugins[name]
	}
	return plugins
}
