package course

import (
	"context"
	"io/fs"
	"net/url"

	"github.com/coursegrid/coursegrid/internal/logging"
)

// TrackFunc records an analytics event on behalf of a module.
type TrackFunc func(eventType string, event map[string]interface{})

// GetModuleFunc resolves a location to the runtime module for the current
// student request.
type GetModuleFunc func(Location) (Module, error)

// RenderTemplateFunc renders a named template with the given context and
// returns HTML.
type RenderTemplateFunc func(name string, context map[string]interface{}) (string, error)

// ReplaceURLsFunc rewrites static URLs in an HTML fragment to their servable
// form.
type ReplaceURLsFunc func(html string) string

// ModuleSystem is the runtime facade passed to every module so content
// objects can call back into the host application without knowledge of the
// web framework underneath. The funcs are typically closures over the
// current request and user.
type ModuleSystem struct {
	// AjaxURL is the URL prefix where ajax calls for the encapsulating
	// module are dispatched.
	AjaxURL string

	// Track records an analytics event.
	Track TrackFunc

	// GetModule instantiates the module stored at a location for the
	// current student.
	GetModule GetModuleFunc

	// RenderTemplate renders a named template to HTML.
	RenderTemplate RenderTemplateFunc

	// ReplaceURLs rewrites static URLs in rendered HTML.
	ReplaceURLs ReplaceURLsFunc

	// Filestore holds the course's static resources.
	Filestore fs.FS

	// Seed drives any per-student randomization; derived from the user.
	Seed int64

	Debug  bool
	Logger logging.Logger
}

// NewModuleSystem creates a module system with nop callbacks; callers set
// the fields they need. Keeps module code free of nil checks.
func NewModuleSystem() *ModuleSystem {
	return &ModuleSystem{
		Track: func(string, map[string]interface{}) {},
		RenderTemplate: func(name string, _ map[string]interface{}) (string, error) {
			return "", nil
		},
		ReplaceURLs: func(html string) string { return html },
		Logger:      logging.NopLogger{},
	}
}

// Score is a points pair for graded content.
type Score struct {
	Earned   float64
	Possible float64
}

// Module is the per-student, per-request instantiation of a descriptor. It
// carries serialized student progress (instance state) and per-student
// cross-module shared state, and is constructed fresh on every request; the
// host persists its state externally.
type Module interface {
	Snippet

	// Descriptor returns the authoring-time definition this module was
	// instantiated from.
	Descriptor() Descriptor

	// Location returns the identity key of the content node.
	Location() Location

	// Category returns the content type key.
	Category() string

	// DisplayName returns the name shown to students.
	DisplayName() string

	// Children instantiates modules for the node's children through the
	// module system. Cached after first access.
	Children() ([]Module, error)

	// DisplayItems returns the descendant modules displayed immediately
	// inside this module.
	DisplayItems() ([]Module, error)

	// DisplayableItems returns the displayable modules this module
	// contributes to its parent. Visible modules return themselves.
	DisplayableItems() []Module

	// IconClass returns a css class identifying the module type for icons.
	IconClass() string

	// InstanceState serializes the student's progress in this module.
	InstanceState() (string, error)

	// SharedState serializes the state shared with other modules of the
	// same type under the descriptor's shared-state key.
	SharedState() (string, error)

	// Score returns the student's score, or nil for unscored content.
	Score() *Score

	// MaxScore returns the maximum score, or nil for unscored content.
	MaxScore() *float64

	// Progress returns how far the student has gone, or nil if the module
	// has no notion of progress.
	Progress() *Progress

	// HandleAjax dispatches an ajax call. dispatch is the last component of
	// the ajax URL; params carries the request values. Returns the response
	// body (normally JSON).
	HandleAjax(ctx context.Context, dispatch string, params url.Values) (string, error)
}

// BaseModule implements the parts of Module common to all content types.
// Concrete modules embed it and override rendering, scoring and ajax
// handling.
type BaseModule struct {
	system        *ModuleSystem
	descriptor    Descriptor
	instanceState string
	sharedState   string

	loadedChildren []Module
}

// NewBaseModule constructs the common module core.
func NewBaseModule(sys *ModuleSystem, desc Descriptor, instanceState, sharedState string) *BaseModule {
	return &BaseModule{
		system:        sys,
		descriptor:    desc,
		instanceState: instanceState,
		sharedState:   sharedState,
	}
}

// System returns the module system this module was instantiated with.
func (m *BaseModule) System() *ModuleSystem { return m.system }

// Descriptor returns the authoring-time definition.
func (m *BaseModule) Descriptor() Descriptor { return m.descriptor }

// Location returns the identity key of the content node.
func (m *BaseModule) Location() Location { return m.descriptor.Location() }

// Category returns the content type key.
func (m *BaseModule) Category() string { return m.descriptor.Category() }

// DisplayName returns the name shown to students.
func (m *BaseModule) DisplayName() string { return m.descriptor.DisplayName() }

// RawInstanceState returns the serialized state the module was constructed
// with.
func (m *BaseModule) RawInstanceState() string { return m.instanceState }

// RawSharedState returns the serialized shared state the module was
// constructed with.
func (m *BaseModule) RawSharedState() string { return m.sharedState }

// Children instantiates modules for all children of this module.
func (m *BaseModule) Children() ([]Module, error) {
	if m.loadedChildren != nil {
		return m.loadedChildren, nil
	}

	children := make([]Module, 0, len(m.descriptor.Definition().Children))
	for _, childLoc := range m.descriptor.Definition().Children {
		child, err := m.system.GetModule(childLoc)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	m.loadedChildren = children
	return m.loadedChildren, nil
}

// DisplayItems returns the descendant modules that display immediately
// inside this module.
func (m *BaseModule) DisplayItems() ([]Module, error) {
	children, err := m.Children()
	if err != nil {
		return nil, err
	}

	var items []Module
	for _, child := range children {
		items = append(items, child.DisplayableItems()...)
	}
	return items, nil
}

// DisplayableItems returns the module itself; invisible organizational
// types override this to surface their children instead.
func (m *BaseModule) DisplayableItems() []Module {
	var self Module = m
	return []Module{self}
}

// IconClass returns the generic icon class.
func (m *BaseModule) IconClass() string { return "other" }

// InstanceState returns the state stored for this module; the base module
// tracks none.
func (m *BaseModule) InstanceState() (string, error) { return "{}", nil }

// SharedState returns the state shared under the shared-state key; the base
// module shares none.
func (m *BaseModule) SharedState() (string, error) { return "{}", nil }

// Score returns nil: the base module is unscored.
func (m *BaseModule) Score() *Score { return nil }

// MaxScore returns nil: the base module is unscored.
func (m *BaseModule) MaxScore() *float64 { return nil }

// Progress returns nil: the base module has no notion of progress.
func (m *BaseModule) Progress() *Progress { return nil }

// HandleAjax returns an empty response for unknown dispatches.
func (m *BaseModule) HandleAjax(_ context.Context, dispatch string, _ url.Values) (string, error) {
	return "", nil
}

// RenderHTML delegates to the descriptor's snippet contract; content types
// shown to students override this.
func (m *BaseModule) RenderHTML(ctx context.Context) (string, error) {
	return m.descriptor.RenderHTML(ctx)
}

// JS returns the descriptor's script fragments.
func (m *BaseModule) JS() map[string][]string { return m.descriptor.JS() }

// CSS returns the descriptor's style fragments.
func (m *BaseModule) CSS() map[string][]string { return m.descriptor.CSS() }
