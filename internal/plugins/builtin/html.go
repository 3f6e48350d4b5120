package builtin

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// HTMLFactory provides the html content type: a block of authored HTML
// shown to students verbatim, with static URLs rewritten at render time.
type HTMLFactory struct{}

// Category returns the content type key.
func (HTMLFactory) Category() string { return "html" }

// FromXML stores the element's inner HTML, or loads it from the file named
// by the filename attribute.
func (HTMLFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}

	content := string(elem.Inner)
	if filename, ok := elem.Attrs["filename"]; ok && filename != "" {
		raw, err := fs.ReadFile(sys.Resources, filename)
		if err != nil {
			return nil, fmt.Errorf("reading html source %s: %w", filename, err)
		}
		content = string(raw)
	}

	base := course.NewBaseDescriptor(sys.DescriptorSystem, elementLocation(sys, elem, data),
		&course.Definition{Data: content},
		course.DescriptorOptions{Metadata: attrMetadata(elem)})

	return &HTMLDescriptor{BaseDescriptor: base}, nil
}

// FromJSON builds an html descriptor from a decoded JSON node.
func (HTMLFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	def, err := jsonDefinition(node.Definition.Data, node.Definition.Children)
	if err != nil {
		return nil, err
	}
	base := course.NewBaseDescriptor(sys, node.Location, def, course.DescriptorOptions{
		Metadata:       course.Metadata(node.Metadata),
		SharedStateKey: node.SharedStateKey,
	})
	return &HTMLDescriptor{BaseDescriptor: base}, nil
}

// HTMLDescriptor is the authoring-time html block.
type HTMLDescriptor struct {
	*course.BaseDescriptor
}

// RenderHTML returns the authored HTML as the editing preview.
func (d *HTMLDescriptor) RenderHTML(ctx context.Context) (string, error) {
	return d.Definition().Data, nil
}

// ExportXML wraps the content back in its html element.
func (d *HTMLDescriptor) ExportXML() ([]byte, error) {
	return exportLeaf(d, d.Definition().Data)
}

// NewModule instantiates the student-facing html module.
func (d *HTMLDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	return &htmlModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
	}, nil
}

type htmlModule struct {
	*course.BaseModule
}

func (m *htmlModule) IconClass() string { return "other" }

// RenderHTML rewrites static URLs in the authored content for serving.
func (m *htmlModule) RenderHTML(ctx context.Context) (string, error) {
	return m.System().ReplaceURLs(m.Descriptor().Definition().Data), nil
}

func (m *htmlModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}
