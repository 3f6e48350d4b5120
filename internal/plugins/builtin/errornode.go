package builtin

import (
	"context"
	"encoding/json"
	"html"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// ErrorFactory provides the synthetic "error" content type. The import
// error handler substitutes an error node for content that failed to parse
// so a broken problem does not take the whole course down with it.
type ErrorFactory struct{}

// Category returns the content type key.
func (ErrorFactory) Category() string { return "error" }

// FromXML stores the broken source for display.
func (ErrorFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}
	loc := elementLocation(sys, elem, data)
	return NewErrorDescriptor(sys.DescriptorSystem, loc, elem.Attrs["message"], string(elem.Inner)), nil
}

// FromJSON builds an error descriptor from a decoded JSON node.
func (ErrorFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	return NewErrorDescriptor(sys, node.Location, node.Metadata["message"], node.Definition.Data), nil
}

// NewErrorDescriptor builds an error node carrying the failure message and
// the source that failed to load.
func NewErrorDescriptor(sys *course.DescriptorSystem, loc course.Location, message, source string) *ErrorDescriptor {
	errLoc := loc
	errLoc.Category = "error"
	base := course.NewBaseDescriptor(sys, errLoc,
		&course.Definition{Data: source},
		course.DescriptorOptions{Metadata: course.Metadata{"message": message}})
	return &ErrorDescriptor{BaseDescriptor: base, message: message}
}

// ErrorDescriptor renders a failed content node: the error message and the
// raw source, instead of aborting course import.
type ErrorDescriptor struct {
	*course.BaseDescriptor
	message string
}

// Message returns the failure message.
func (d *ErrorDescriptor) Message() string { return d.message }

// RenderHTML shows the failure and the offending source.
func (d *ErrorDescriptor) RenderHTML(ctx context.Context) (string, error) {
	return "<div class=\"error-content\"><p>" + html.EscapeString(d.message) +
		"</p><pre>" + html.EscapeString(d.Definition().Data) + "</pre></div>", nil
}

// NewModule instantiates the error module.
func (d *ErrorDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	return &errorModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
		descriptor: d,
	}, nil
}

type errorModule struct {
	*course.BaseModule
	descriptor *ErrorDescriptor
}

func (m *errorModule) IconClass() string { return "error" }

func (m *errorModule) RenderHTML(ctx context.Context) (string, error) {
	m.System().Track("error_content_rendered", map[string]interface{}{
		"location": m.Location().URL(),
	})
	return m.descriptor.RenderHTML(ctx)
}

// InstanceState reports the failure so host dashboards can find broken
// content by querying state.
func (m *errorModule) InstanceState() (string, error) {
	state, err := json.Marshal(map[string]string{"message": m.descriptor.message})
	if err != nil {
		return "{}", err
	}
	return string(state), nil
}

func (m *errorModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}
