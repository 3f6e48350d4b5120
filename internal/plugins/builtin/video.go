package builtin

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// VideoFactory provides the video content type. The definition stores the
// video source reference (youtube id or direct URL); playback position is
// per-student instance state.
type VideoFactory struct{}

// Category returns the content type key.
func (VideoFactory) Category() string { return "video" }

type videoSource struct {
	YouTube string `json:"youtube,omitempty"`
	URL     string `json:"url,omitempty"`
}

// FromXML reads the source reference from the element attributes.
func (VideoFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}

	src := videoSource{
		YouTube: elem.Attrs["youtube"],
		URL:     elem.Attrs["src"],
	}
	encoded, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}

	md := attrMetadata(elem)
	delete(md, "youtube")
	delete(md, "src")

	base := course.NewBaseDescriptor(sys.DescriptorSystem, elementLocation(sys, elem, data),
		&course.Definition{Data: string(encoded)},
		course.DescriptorOptions{Metadata: md})

	return &VideoDescriptor{BaseDescriptor: base, source: src}, nil
}

// FromJSON builds a video descriptor from a decoded JSON node.
func (VideoFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	var src videoSource
	if node.Definition.Data != "" {
		if err := json.Unmarshal([]byte(node.Definition.Data), &src); err != nil {
			return nil, err
		}
	}
	def, err := jsonDefinition(node.Definition.Data, node.Definition.Children)
	if err != nil {
		return nil, err
	}
	base := course.NewBaseDescriptor(sys, node.Location, def, course.DescriptorOptions{
		Metadata:       course.Metadata(node.Metadata),
		SharedStateKey: node.SharedStateKey,
	})
	return &VideoDescriptor{BaseDescriptor: base, source: src}, nil
}

// VideoDescriptor is the authoring-time video block.
type VideoDescriptor struct {
	*course.BaseDescriptor
	source videoSource
}

// ExportXML writes the video element with its source attributes.
func (d *VideoDescriptor) ExportXML() ([]byte, error) {
	saved := d.Metadata().Clone()
	if d.source.YouTube != "" {
		d.Metadata()["youtube"] = d.source.YouTube
	}
	if d.source.URL != "" {
		d.Metadata()["src"] = d.source.URL
	}
	out, err := exportLeaf(d, "")
	for k := range d.Metadata() {
		if _, ok := saved[k]; !ok {
			delete(d.Metadata(), k)
		}
	}
	return out, err
}

// NewModule instantiates the student-facing video module.
func (d *VideoDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	m := &videoModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
		descriptor: d,
	}
	if instanceState != "" {
		// Tolerate unreadable state: playback restarts from zero.
		_ = json.Unmarshal([]byte(instanceState), &m.state)
	}
	return m, nil
}

type videoState struct {
	Position float64 `json:"position"`
}

type videoModule struct {
	*course.BaseModule
	descriptor *VideoDescriptor
	state      videoState
}

func (m *videoModule) IconClass() string { return "video" }

func (m *videoModule) InstanceState() (string, error) {
	out, err := json.Marshal(m.state)
	if err != nil {
		return "{}", err
	}
	return string(out), nil
}

func (m *videoModule) RenderHTML(ctx context.Context) (string, error) {
	out, err := m.System().RenderTemplate("video.html", map[string]interface{}{
		"DisplayName": m.DisplayName(),
		"YouTube":     m.descriptor.source.YouTube,
		"URL":         m.descriptor.source.URL,
		"Position":    m.state.Position,
		"AjaxURL":     m.System().AjaxURL,
	})
	if err != nil {
		return "", err
	}
	return m.System().ReplaceURLs(out), nil
}

// HandleAjax persists playback position on save_position dispatches.
func (m *videoModule) HandleAjax(_ context.Context, dispatch string, params url.Values) (string, error) {
	switch dispatch {
	case "save_position":
		position, err := strconv.ParseFloat(params.Get("position"), 64)
		if err != nil {
			return "", course.ErrBadAjaxValue("position", params.Get("position"))
		}
		m.state.Position = position
		m.System().Track("video_position_saved", map[string]interface{}{
			"location": m.Location().URL(),
			"position": position,
		})
		return `{"success": true}`, nil
	default:
		return "", nil
	}
}

func (m *videoModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}
