package builtin

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// SequenceFactory provides the sequential content type: an ordered run of
// content shown one item at a time, remembering each student's position.
type SequenceFactory struct{}

// Category returns the content type key.
func (SequenceFactory) Category() string { return "sequential" }

// FromXML parses a sequential and its subtree.
func (SequenceFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	base, err := parseContainer(data, sys)
	if err != nil {
		return nil, err
	}
	return &SequenceDescriptor{ContainerDescriptor: ContainerDescriptor{BaseDescriptor: base}}, nil
}

// FromJSON builds a sequential descriptor from a decoded JSON node.
func (SequenceFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	base, err := containerFromJSON(node, sys)
	if err != nil {
		return nil, err
	}
	return &SequenceDescriptor{ContainerDescriptor: ContainerDescriptor{BaseDescriptor: base}}, nil
}

// SequenceDescriptor is the authoring-time sequential block.
type SequenceDescriptor struct {
	ContainerDescriptor
}

// NewModule instantiates the student-facing sequence module.
func (d *SequenceDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	m := &sequenceModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
	}
	if instanceState != "" {
		// Position state that fails to decode falls back to the start.
		_ = json.Unmarshal([]byte(instanceState), &m.state)
	}
	return m, nil
}

type sequenceState struct {
	Position int `json:"position"`
}

type sequenceModule struct {
	*course.BaseModule
	state sequenceState
}

func (m *sequenceModule) IconClass() string {
	// The sequence icon reflects its current item, so a run of videos gets
	// the video icon in navigation.
	items, err := m.DisplayItems()
	if err != nil || len(items) == 0 {
		return "other"
	}
	pos := m.state.Position
	if pos < 0 || pos >= len(items) {
		pos = 0
	}
	return items[pos].IconClass()
}

func (m *sequenceModule) InstanceState() (string, error) {
	out, err := json.Marshal(m.state)
	if err != nil {
		return "{}", err
	}
	return string(out), nil
}

func (m *sequenceModule) Progress() *course.Progress {
	children, err := m.Children()
	if err != nil {
		return nil
	}
	return course.SumProgress(children)
}

func (m *sequenceModule) RenderHTML(ctx context.Context) (string, error) {
	items, err := m.DisplayItems()
	if err != nil {
		return "", err
	}

	rendered := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		html, err := item.RenderHTML(ctx)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, map[string]interface{}{
			"DisplayName": item.DisplayName(),
			"IconClass":   item.IconClass(),
			"Content":     html,
		})
	}

	position := m.state.Position
	if position < 0 || position >= len(rendered) {
		position = 0
	}

	return m.System().RenderTemplate("sequential.html", map[string]interface{}{
		"DisplayName": m.DisplayName(),
		"Items":       rendered,
		"Position":    position,
		"AjaxURL":     m.System().AjaxURL,
	})
}

// HandleAjax remembers the student's position on goto_position dispatches.
func (m *sequenceModule) HandleAjax(_ context.Context, dispatch string, params url.Values) (string, error) {
	switch dispatch {
	case "goto_position":
		position, err := strconv.Atoi(params.Get("position"))
		if err != nil || position < 0 {
			return "", course.ErrBadAjaxValue("position", params.Get("position"))
		}
		m.state.Position = position
		m.System().Track("seq_goto", map[string]interface{}{
			"location": m.Location().URL(),
			"position": position,
		})
		return `{"success": true}`, nil
	default:
		return "", nil
	}
}

func (m *sequenceModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}
