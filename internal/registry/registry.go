// Package registry manages the content-type plugin registry. Content types
// register a DescriptorFactory under a category string; the host resolves
// categories to factories when deserializing course content from XML or
// JSON.
//
// Resolution semantics: categories are case-insensitive, the first
// registration wins when several plugins claim the same category (with a
// warning naming the duplicates), resolutions are cached for the process
// lifetime, and a missing category yields a distinct ModuleMissingError
// unless the caller supplied a default factory.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/errors"
	"github.com/coursegrid/coursegrid/internal/logging"
)

// DescriptorFactory builds descriptors of one content type from serialized
// course data.
type DescriptorFactory interface {
	// Category returns the content type key this factory serves.
	Category() string

	// FromXML parses one XML element into a descriptor. Container types
	// recurse through sys.ProcessXML for nested elements.
	FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error)

	// FromJSON builds a descriptor from a decoded JSON node.
	FromJSON(node JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error)
}

// JSONNode is the decoded form of a JSON content document.
type JSONNode struct {
	Location       course.Location   `json:"location"`
	Definition     JSONDefinition    `json:"definition"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	SharedStateKey string            `json:"shared_state_key,omitempty"`
}

// JSONDefinition mirrors course.Definition in its serialized form.
type JSONDefinition struct {
	Data     string   `json:"data,omitempty"`
	Children []string `json:"children,omitempty"`
}

// registration pairs a factory with the plugin name that provided it.
type registration struct {
	pluginName string
	factory    DescriptorFactory
}

// Registry resolves category strings to descriptor factories. The plugin
// set is fixed at process start; the resolution cache is never invalidated.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]registration
	cache   map[string]DescriptorFactory
	logger  logging.Logger
}

// New creates an empty registry.
func New(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Registry{
		entries: make(map[string][]registration),
		cache:   make(map[string]DescriptorFactory),
		logger:  logger.WithComponent("registry"),
	}
}

// Register adds a factory under its category for the named plugin.
// Registering a category twice is allowed; the first registration wins at
// resolution time and the duplicate is logged.
func (r *Registry) Register(pluginName string, factory DescriptorFactory) {
	category := strings.ToLower(factory.Category())

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.entries[category]
	if len(existing) > 0 {
		names := make([]string, 0, len(existing)+1)
		for _, reg := range existing {
			names = append(names, reg.pluginName)
		}
		names = append(names, pluginName)
		r.logger.Warn(context.Background(), nil,
			"multiple content types registered for category, first one wins",
			"category", category,
			"plugins", strings.Join(names, ", "))
	}

	r.entries[category] = append(existing, registration{pluginName: pluginName, factory: factory})
}

// Resolve returns the factory registered under category. If nothing is
// registered and def is non-nil, def is returned; otherwise a
// ModuleMissingError.
func (r *Registry) Resolve(category string, def DescriptorFactory) (DescriptorFactory, error) {
	key := strings.ToLower(category)

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock.
	if cached, ok := r.cache[key]; ok {
		return cached, nil
	}

	regs := r.entries[key]
	if len(regs) == 0 {
		if def != nil {
			return def, nil
		}
		return nil, errors.NewModuleMissing(category)
	}

	if len(regs) > 1 {
		r.logger.Warn(context.Background(), nil,
			"category is ambiguous, resolving to its first registration",
			"category", key,
			"plugin", regs[0].pluginName)
	}

	factory := regs[0].factory
	r.cache[key] = factory
	return factory, nil
}

// Categories returns the sorted list of registered categories.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for category := range r.entries {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Factories returns the winning factory for every registered category.
func (r *Registry) Factories() []DescriptorFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DescriptorFactory, 0, len(r.entries))
	for _, regs := range r.entries {
		out = append(out, regs[0].factory)
	}
	return out
}

// Count returns the number of registered categories.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
