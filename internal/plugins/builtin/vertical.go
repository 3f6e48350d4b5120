package builtin

import (
	"context"
	"strings"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// VerticalFactory provides the vertical content type: children stacked on a
// single page. A vertical is itself invisible; its children are what the
// student sees.
type VerticalFactory struct{}

// Category returns the content type key.
func (VerticalFactory) Category() string { return "vertical" }

// FromXML parses a vertical and its subtree.
func (VerticalFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	base, err := parseContainer(data, sys)
	if err != nil {
		return nil, err
	}
	return &VerticalDescriptor{ContainerDescriptor: ContainerDescriptor{BaseDescriptor: base}}, nil
}

// FromJSON builds a vertical descriptor from a decoded JSON node.
func (VerticalFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	base, err := containerFromJSON(node, sys)
	if err != nil {
		return nil, err
	}
	return &VerticalDescriptor{ContainerDescriptor: ContainerDescriptor{BaseDescriptor: base}}, nil
}

// VerticalDescriptor is the authoring-time vertical block.
type VerticalDescriptor struct {
	ContainerDescriptor
}

// NewModule instantiates the vertical's runtime module.
func (d *VerticalDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	return &verticalModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
	}, nil
}

type verticalModule struct {
	*course.BaseModule
}

func (m *verticalModule) IconClass() string { return "vertical" }

func (m *verticalModule) Progress() *course.Progress {
	children, err := m.Children()
	if err != nil {
		return nil
	}
	return course.SumProgress(children)
}

// RenderHTML stacks the children's HTML on one page.
func (m *verticalModule) RenderHTML(ctx context.Context) (string, error) {
	items, err := m.DisplayItems()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`<div class="vertical">`)
	for _, item := range items {
		html, err := item.RenderHTML(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(`<div class="vertical-item">`)
		b.WriteString(html)
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

func (m *verticalModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}
