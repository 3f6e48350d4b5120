package builtin

import (
	"context"
	"fmt"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// parseContainer parses a container element, feeding every child element
// back through the parsing system so the whole subtree lands in the store.
func parseContainer(data []byte, sys *course.XMLParsingSystem) (*course.BaseDescriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}

	loc := elementLocation(sys, elem, data)
	def := &course.Definition{}
	for _, childRaw := range elem.Children {
		child, err := sys.ProcessXML(childRaw)
		if err != nil {
			substitute, herr := sys.HandleError(brokenChildLocation(sys, childRaw), "parsing child element", err)
			if herr != nil {
				return nil, herr
			}
			if substitute == nil {
				continue
			}
			child = substitute
		}
		def.Children = append(def.Children, child.Location())
	}

	return course.NewBaseDescriptor(sys.DescriptorSystem, loc, def,
		course.DescriptorOptions{Metadata: attrMetadata(elem)}), nil
}

// containerFromJSON builds the shared container core from a JSON node.
func containerFromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (*course.BaseDescriptor, error) {
	def, err := jsonDefinition(node.Definition.Data, node.Definition.Children)
	if err != nil {
		return nil, err
	}
	return course.NewBaseDescriptor(sys, node.Location, def, course.DescriptorOptions{
		Metadata:       course.Metadata(node.Metadata),
		SharedStateKey: node.SharedStateKey,
	}), nil
}

// ContainerDescriptor is the shared implementation of purely organizational
// content types (course, chapter): children plus policy metadata, no data
// of their own.
type ContainerDescriptor struct {
	*course.BaseDescriptor
}

// ExportXML nests the exports of every child inside the container element.
func (d *ContainerDescriptor) ExportXML() ([]byte, error) {
	return exportContainer(d)
}

// NewModule instantiates the container's runtime module.
func (d *ContainerDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	return &containerModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
	}, nil
}

// containerModule renders an outline of its children and aggregates their
// progress.
type containerModule struct {
	*course.BaseModule
}

func (m *containerModule) IconClass() string { return "chapter" }

func (m *containerModule) Progress() *course.Progress {
	children, err := m.Children()
	if err != nil {
		return nil
	}
	return course.SumProgress(children)
}

func (m *containerModule) RenderHTML(ctx context.Context) (string, error) {
	children, err := m.Children()
	if err != nil {
		return "", err
	}

	items := make([]map[string]interface{}, 0, len(children))
	for _, child := range children {
		entry := map[string]interface{}{
			"DisplayName": child.DisplayName(),
			"Location":    child.Location().URL(),
			"IconClass":   child.IconClass(),
		}
		if p := child.Progress(); p != nil {
			entry["Progress"] = p.String()
		}
		items = append(items, entry)
	}

	return m.System().RenderTemplate("container.html", map[string]interface{}{
		"DisplayName": m.DisplayName(),
		"Items":       items,
	})
}

func (m *containerModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}

// ChapterFactory provides the chapter content type.
type ChapterFactory struct{}

// Category returns the content type key.
func (ChapterFactory) Category() string { return "chapter" }

// FromXML parses a chapter and its subtree.
func (ChapterFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	base, err := parseContainer(data, sys)
	if err != nil {
		return nil, err
	}
	return &ContainerDescriptor{BaseDescriptor: base}, nil
}

// FromJSON builds a chapter descriptor from a decoded JSON node.
func (ChapterFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	base, err := containerFromJSON(node, sys)
	if err != nil {
		return nil, err
	}
	return &ContainerDescriptor{BaseDescriptor: base}, nil
}

// CourseFactory provides the course root content type.
type CourseFactory struct{}

// Category returns the content type key.
func (CourseFactory) Category() string { return "course" }

// FromXML parses the course root. The org and course attributes rescope the
// parsing system so nested locations land in the right course.
func (CourseFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}
	if org := elem.Attrs["org"]; org != "" {
		sys.Org = org
	}
	if courseID := elem.Attrs["course"]; courseID != "" {
		sys.Course = courseID
	}
	if sys.Org == "" || sys.Course == "" {
		return nil, fmt.Errorf("course element needs org and course attributes")
	}

	base, err := parseContainer(data, sys)
	if err != nil {
		return nil, err
	}
	delete(base.Metadata(), "org")
	delete(base.Metadata(), "course")
	return &CourseDescriptor{ContainerDescriptor: ContainerDescriptor{BaseDescriptor: base}}, nil
}

// FromJSON builds a course descriptor from a decoded JSON node.
func (CourseFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	base, err := containerFromJSON(node, sys)
	if err != nil {
		return nil, err
	}
	return &CourseDescriptor{ContainerDescriptor: ContainerDescriptor{BaseDescriptor: base}}, nil
}

// CourseDescriptor is the root of a course tree.
type CourseDescriptor struct {
	ContainerDescriptor
}

// Start returns the course start date metadata, or "".
func (d *CourseDescriptor) Start() string { return d.Metadata()["start"] }

// ExportXML writes the course root with its org/course scope restored.
func (d *CourseDescriptor) ExportXML() ([]byte, error) {
	d.Metadata()["org"] = d.Location().Org
	d.Metadata()["course"] = d.Location().Course
	out, err := exportContainer(d)
	delete(d.Metadata(), "org")
	delete(d.Metadata(), "course")
	return out, err
}
