package builtin

import (
	"context"
	"html"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// RawFactory keeps unrecognized content as its raw XML source. It is the
// registry default during import so a course with unknown tags still loads.
type RawFactory struct{}

// Category returns the content type key.
func (RawFactory) Category() string { return "raw" }

// FromXML stores the element source verbatim.
func (RawFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}

	loc := course.NewLocation(sys.Org, sys.Course, elem.Tag, urlName(elem, data))
	base := course.NewBaseDescriptor(sys.DescriptorSystem, loc,
		&course.Definition{Data: string(data)},
		course.DescriptorOptions{Metadata: attrMetadata(elem)})

	return &RawDescriptor{BaseDescriptor: base}, nil
}

// FromJSON builds a raw descriptor from a decoded JSON node.
func (RawFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	def, err := jsonDefinition(node.Definition.Data, node.Definition.Children)
	if err != nil {
		return nil, err
	}
	base := course.NewBaseDescriptor(sys, node.Location, def, course.DescriptorOptions{
		Metadata:       course.Metadata(node.Metadata),
		SharedStateKey: node.SharedStateKey,
	})
	return &RawDescriptor{BaseDescriptor: base}, nil
}

// RawDescriptor holds content whose category has no registered type.
type RawDescriptor struct {
	*course.BaseDescriptor
}

// ExportXML returns the stored source unchanged.
func (d *RawDescriptor) ExportXML() ([]byte, error) {
	return []byte(d.Definition().Data), nil
}

// RenderHTML shows the escaped source. Raw nodes have no student view of
// their own.
func (d *RawDescriptor) RenderHTML(ctx context.Context) (string, error) {
	return "<pre class=\"raw-content\">" + html.EscapeString(d.Definition().Data) + "</pre>", nil
}
