// Package plugins defines the plugin contract for content-type providers
// and the manager that wires them into the registry. A plugin contributes
// one or more descriptor factories; the builtin plugin provides the standard
// course content types.
package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coursegrid/coursegrid/internal/registry"
)

// Plugin is a provider of content types.
type Plugin interface {
	// Name returns the unique name of the plugin.
	Name() string

	// Version returns the version of the plugin.
	Version() string

	// Description returns a description of what the plugin provides.
	Description() string

	// Factories returns the descriptor factories the plugin contributes.
	Factories() []registry.DescriptorFactory
}

// Info describes a registered plugin.
type Info struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// Manager tracks registered plugins and installs their factories into the
// content-type registry. The plugin set is fixed at process start.
type Manager struct {
	mu       sync.RWMutex
	registry *registry.Registry
	plugins  map[string]Plugin
}

// NewManager creates a plugin manager installing into reg.
func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		registry: reg,
		plugins:  make(map[string]Plugin),
	}
}

// Register installs a plugin's factories into the registry. A plugin name
// can only be registered once.
func (m *Manager) Register(plugin Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := plugin.Name()
	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}

	for _, factory := range plugin.Factories() {
		m.registry.Register(name, factory)
	}
	m.plugins[name] = plugin

	return nil
}

// Get retrieves a plugin by name.
func (m *Manager) Get(name string) (Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, exists := m.plugins[name]
	if !exists {
		return nil, fmt.Errorf("plugin %s not found", name)
	}

	return plugin, nil
}

// List returns info for all registered plugins, sorted by name.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		categories := make([]string, 0)
		for _, factory := range plugin.Factories() {
			categories = append(categories, factory.Category())
		}
		sort.Strings(categories)

		infos = append(infos, Info{
			Name:        plugin.Name(),
			Version:     plugin.Version(),
			Description: plugin.Description(),
			Categories:  categories,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
