package course

import (
	"context"
	"io/fs"

	"github.com/coursegrid/coursegrid/internal/errors"
	"github.com/coursegrid/coursegrid/internal/logging"
)

// Definition holds the intrinsic data of a content node: the raw payload and
// the locations of its children. It contains nothing that varies between
// courses reusing the same content (dates, grading policy); that lives in
// Metadata.
type Definition struct {
	Data     string
	Children []Location
}

// Equal reports whether two definitions hold the same data and child list.
func (d *Definition) Equal(other *Definition) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Data != other.Data || len(d.Children) != len(other.Children) {
		return false
	}
	for i, c := range d.Children {
		if other.Children[i] != c {
			return false
		}
	}
	return true
}

// Snippet is the contract for anything that can present an HTML fragment
// along with associated JS and CSS fragment sets.
type Snippet interface {
	// RenderHTML returns the HTML used to display this object.
	RenderHTML(ctx context.Context) (string, error)

	// JS returns script fragments keyed by kind ("js", "module").
	JS() map[string][]string

	// CSS returns style fragments keyed by kind ("css", "scss").
	CSS() map[string][]string
}

// StatePair is a sample (instance state, shared state) case used by test
// harnesses exercising a content type.
type StatePair struct {
	Instance string
	Shared   string
}

// Descriptor is the authoring-time, student-independent representation of a
// content node. Descriptors exist once per node in a course and generate
// Modules, which do know about student state.
type Descriptor interface {
	Snippet

	// Location returns the identity key of this content node.
	Location() Location

	// Category returns the content type key (the location's category).
	Category() string

	// Definition returns the node's intrinsic data and child locations.
	Definition() *Definition

	// Metadata returns the node's policy fields, including any inherited
	// ones.
	Metadata() Metadata

	// SharedStateKey returns the key under which modules of this type share
	// per-student state, or "" if the type does not share state.
	SharedStateKey() string

	// InheritedFields returns the set of metadata fields that were
	// inherited from an ancestor rather than authored on this node.
	InheritedFields() FieldSet

	// InheritMetadata pushes a parent's metadata down into this node.
	// Only fields listed in InheritableFields are considered, and authored
	// values always win. Idempotent.
	InheritMetadata(parent Metadata)

	// Children loads and returns descriptors for the node's children,
	// applying metadata inheritance on first load. Cached after first
	// access.
	Children() ([]Descriptor, error)

	// DisplayName returns the authored display_name metadata, falling back
	// to a name derived from the location.
	DisplayName() string

	// NewModule instantiates the runtime module for one student request.
	NewModule(sys *ModuleSystem, instanceState, sharedState string) (Module, error)

	// ExportXML serializes this node (and its subtree) to XML. Content
	// types that do not support XML export return a NotImplementedError.
	ExportXML() ([]byte, error)

	// SampleStates enumerates sample state cases for test harnesses.
	SampleStates() []StatePair

	// Equals reports whether two descriptors are interchangeable: equal
	// definition, metadata, location, shared-state key and inherited set.
	Equals(other Descriptor) bool
}

// LoadItemFunc loads the descriptor stored under a location.
type LoadItemFunc func(Location) (Descriptor, error)

// ErrorHandlerFunc is the host's hook for content loading failures. It may
// return a substitute descriptor (for example an error content node that
// renders the failure) to continue the import, or an error to propagate.
type ErrorHandlerFunc func(loc Location, msg string, cause error) (Descriptor, error)

// DescriptorSystem gives descriptors access to host resources without
// knowledge of the application underneath.
type DescriptorSystem struct {
	// LoadItem resolves a child location to its descriptor.
	LoadItem LoadItemFunc

	// Resources is the filesystem holding the course's files (referenced
	// problem sources, static assets).
	Resources fs.FS

	// HandleError is invoked for load failures instead of aborting.
	HandleError ErrorHandlerFunc

	Logger logging.Logger
}

// NewDescriptorSystem creates a descriptor system with a propagating error
// handler and a nop logger; callers override fields as needed.
func NewDescriptorSystem(loadItem LoadItemFunc, resources fs.FS) *DescriptorSystem {
	return &DescriptorSystem{
		LoadItem:  loadItem,
		Resources: resources,
		HandleError: func(loc Location, msg string, cause error) (Descriptor, error) {
			return nil, errors.NewContentError("load_failed", msg, cause).WithLocation(loc.URL())
		},
		Logger: logging.NopLogger{},
	}
}

// XMLParsingSystem extends a DescriptorSystem with the callback used during
// course import to turn nested XML into stored descriptors.
type XMLParsingSystem struct {
	*DescriptorSystem

	// ProcessXML parses one XML element (and its subtree) into a
	// descriptor, registering it with the host's store.
	ProcessXML func(data []byte) (Descriptor, error)

	// Org and Course scope the locations generated for parsed nodes.
	Org    string
	Course string
}

// BaseDescriptor implements the parts of Descriptor that are common to all
// content types. Concrete types embed it and override what they need
// (NewModule, ExportXML, RenderHTML).
type BaseDescriptor struct {
	system         *DescriptorSystem
	location       Location
	definition     *Definition
	metadata       Metadata
	sharedStateKey string
	inherited      FieldSet

	loadedChildren []Descriptor
}

// DescriptorOptions carries the optional construction arguments of a
// descriptor.
type DescriptorOptions struct {
	Metadata       Metadata
	SharedStateKey string
}

// NewBaseDescriptor constructs the common descriptor core.
func NewBaseDescriptor(sys *DescriptorSystem, loc Location, def *Definition, opts DescriptorOptions) *BaseDescriptor {
	if def == nil {
		def = &Definition{}
	}
	md := opts.Metadata
	if md == nil {
		md = Metadata{}
	}
	return &BaseDescriptor{
		system:         sys,
		location:       loc,
		definition:     def,
		metadata:       md,
		sharedStateKey: opts.SharedStateKey,
		inherited:      NewFieldSet(),
	}
}

// System returns the descriptor system this node was loaded with.
func (d *BaseDescriptor) System() *DescriptorSystem { return d.system }

// Location returns the identity key of this content node.
func (d *BaseDescriptor) Location() Location { return d.location }

// Category returns the content type key.
func (d *BaseDescriptor) Category() string { return d.location.Category }

// Definition returns the node's intrinsic data and child locations.
func (d *BaseDescriptor) Definition() *Definition { return d.definition }

// Metadata returns the node's policy fields.
func (d *BaseDescriptor) Metadata() Metadata { return d.metadata }

// SharedStateKey returns the shared-state key, or "".
func (d *BaseDescriptor) SharedStateKey() string { return d.sharedStateKey }

// InheritedFields returns which metadata fields were inherited.
func (d *BaseDescriptor) InheritedFields() FieldSet { return d.inherited }

// DisplayName returns authored display_name metadata or a derived name.
func (d *BaseDescriptor) DisplayName() string {
	if name, ok := d.metadata["display_name"]; ok && name != "" {
		return name
	}
	return d.location.DisplayName()
}

// InheritMetadata updates this node with metadata inherited from a
// containing node. Only fields in InheritableFields are inherited, and only
// when the field is not already set; authored values always win. Running
// the pass twice has no additional effect.
func (d *BaseDescriptor) InheritMetadata(parent Metadata) {
	for _, field := range InheritableFields {
		if _, authored := d.metadata[field]; authored {
			continue
		}
		if value, ok := parent[field]; ok {
			d.inherited.Add(field)
			d.metadata[field] = value
		}
	}
}

// Children lazily loads descriptors for the node's children through the
// descriptor system, pushing this node's metadata down on first load.
func (d *BaseDescriptor) Children() ([]Descriptor, error) {
	if d.loadedChildren != nil {
		return d.loadedChildren, nil
	}

	children := make([]Descriptor, 0, len(d.definition.Children))
	for _, childLoc := range d.definition.Children {
		child, err := d.system.LoadItem(childLoc)
		if err != nil {
			substitute, herr := d.system.HandleError(childLoc, "loading child descriptor", err)
			if herr != nil {
				return nil, herr
			}
			if substitute == nil {
				continue
			}
			child = substitute
		}
		child.InheritMetadata(d.metadata)
		children = append(children, child)
	}

	d.loadedChildren = children
	return d.loadedChildren, nil
}

// NewModule returns the generic runtime module. Content types that render
// or track state override this.
func (d *BaseDescriptor) NewModule(sys *ModuleSystem, instanceState, sharedState string) (Module, error) {
	return NewBaseModule(sys, d, instanceState, sharedState), nil
}

// RenderHTML is abstract on the base descriptor.
func (d *BaseDescriptor) RenderHTML(ctx context.Context) (string, error) {
	return "", errors.NewNotImplemented("RenderHTML", d.Category())
}

// ExportXML is abstract on the base descriptor.
func (d *BaseDescriptor) ExportXML() ([]byte, error) {
	return nil, errors.NewNotImplemented("ExportXML", d.Category())
}

// JS returns no script fragments by default.
func (d *BaseDescriptor) JS() map[string][]string { return nil }

// CSS returns no style fragments by default.
func (d *BaseDescriptor) CSS() map[string][]string { return nil }

// SampleStates returns the default single empty-state case.
func (d *BaseDescriptor) SampleStates() []StatePair {
	return []StatePair{{Instance: "{}", Shared: "{}"}}
}

// Equals compares the fixed attribute subset that defines descriptor
// identity: definition, metadata, location, shared-state key and the
// inherited field set. Object identity and load order are irrelevant.
func (d *BaseDescriptor) Equals(other Descriptor) bool {
	if other == nil {
		return false
	}
	return d.location == other.Location() &&
		d.sharedStateKey == other.SharedStateKey() &&
		d.definition.Equal(other.Definition()) &&
		d.metadata.Equal(other.Metadata()) &&
		d.inherited.Equal(other.InheritedFields())
}
