package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// ProblemFactory provides the problem content type: a prompt with an
// expected answer, graded per student. Attempts and score live in instance
// state; the answer key is part of the definition.
type ProblemFactory struct{}

// Category returns the content type key.
func (ProblemFactory) Category() string { return "problem" }

type problemDefinition struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// FromXML reads the prompt from the element body and the answer key and
// weight from attributes.
func (ProblemFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	elem, err := ParseElement(data)
	if err != nil {
		return nil, err
	}

	def := problemDefinition{
		Prompt: string(elem.Inner),
		Answer: elem.Attrs["answer"],
	}
	encoded, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}

	md := attrMetadata(elem)
	delete(md, "answer")

	base := course.NewBaseDescriptor(sys.DescriptorSystem, elementLocation(sys, elem, data),
		&course.Definition{Data: string(encoded)},
		course.DescriptorOptions{
			Metadata: md,
			// Problems of the same url_name share per-student state so a
			// problem reused across sequences shows the same attempts.
			SharedStateKey: urlName(elem, data),
		})

	return &ProblemDescriptor{BaseDescriptor: base, definition: def}, nil
}

// FromJSON builds a problem descriptor from a decoded JSON node.
func (ProblemFactory) FromJSON(node registry.JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	var pdef problemDefinition
	if node.Definition.Data != "" {
		if err := json.Unmarshal([]byte(node.Definition.Data), &pdef); err != nil {
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
	return &ProblemDescriptor{BaseDescriptor: base, definition: pdef}, nil
}

// ProblemDescriptor is the authoring-time problem definition.
type ProblemDescriptor struct {
	*course.BaseDescriptor
	definition problemDefinition
}

// Weight returns the problem's point value from metadata, defaulting to 1.
func (d *ProblemDescriptor) Weight() float64 {
	if raw, ok := d.Metadata()["weight"]; ok {
		if w, err := strconv.ParseFloat(raw, 64); err == nil && w > 0 {
			return w
		}
	}
	return 1
}

// ExportXML writes the problem element with its answer key and prompt.
func (d *ProblemDescriptor) ExportXML() ([]byte, error) {
	saved, ok := d.Metadata()["answer"]
	d.Metadata()["answer"] = d.definition.Answer
	out, err := exportLeaf(d, d.definition.Prompt)
	if ok {
		d.Metadata()["answer"] = saved
	} else {
		delete(d.Metadata(), "answer")
	}
	return out, err
}

// SampleStates covers the fresh, attempted and solved cases.
func (d *ProblemDescriptor) SampleStates() []course.StatePair {
	return []course.StatePair{
		{Instance: "{}", Shared: "{}"},
		{Instance: `{"attempts": 1, "correct": false}`, Shared: "{}"},
		{Instance: `{"attempts": 2, "correct": true}`, Shared: "{}"},
	}
}

// NewModule instantiates the student-facing problem module.
func (d *ProblemDescriptor) NewModule(sys *course.ModuleSystem, instanceState, sharedState string) (course.Module, error) {
	m := &problemModule{
		BaseModule: course.NewBaseModule(sys, d, instanceState, sharedState),
		descriptor: d,
	}
	switch {
	case instanceState != "":
		if err := json.Unmarshal([]byte(instanceState), &m.state); err != nil {
			return nil, fmt.Errorf("decoding problem state for %s: %w", d.Location(), err)
		}
	case sharedState != "":
		// First visit through this location; pick up attempts made on the
		// same problem elsewhere in the course.
		if err := json.Unmarshal([]byte(sharedState), &m.state); err != nil {
			return nil, fmt.Errorf("decoding shared problem state for %s: %w", d.Location(), err)
		}
	}
	return m, nil
}

type problemState struct {
	Attempts int    `json:"attempts"`
	Correct  bool   `json:"correct"`
	Answer   string `json:"answer,omitempty"`
}

type problemModule struct {
	*course.BaseModule
	descriptor *ProblemDescriptor
	state      problemState
}

func (m *problemModule) IconClass() string { return "problem" }

func (m *problemModule) InstanceState() (string, error) {
	out, err := json.Marshal(m.state)
	if err != nil {
		return "{}", err
	}
	return string(out), nil
}

// SharedState mirrors the full problem state, so every location the problem
// appears at reads and writes the same attempts.
func (m *problemModule) SharedState() (string, error) {
	return m.InstanceState()
}

func (m *problemModule) Score() *course.Score {
	score := &course.Score{Possible: m.descriptor.Weight()}
	if m.state.Correct {
		score.Earned = score.Possible
	}
	return score
}

func (m *problemModule) MaxScore() *float64 {
	max := m.descriptor.Weight()
	return &max
}

func (m *problemModule) Progress() *course.Progress {
	p := course.NewProgress(0, 1)
	if m.state.Correct {
		p = course.NewProgress(1, 1)
	}
	return &p
}

func (m *problemModule) RenderHTML(ctx context.Context) (string, error) {
	return m.System().RenderTemplate("problem.html", map[string]interface{}{
		"DisplayName": m.DisplayName(),
		"Prompt":      m.System().ReplaceURLs(m.descriptor.definition.Prompt),
		"Attempts":    m.state.Attempts,
		"Correct":     m.state.Correct,
		"Answer":      m.state.Answer,
		"ShowAnswer":  m.showAnswer(),
		"AjaxURL":     m.System().AjaxURL,
	})
}

// showAnswer honors the showanswer policy field, which is usually inherited
// from the course.
func (m *problemModule) showAnswer() bool {
	switch m.Descriptor().Metadata()["showanswer"] {
	case "always":
		return true
	case "attempted":
		return m.state.Attempts > 0
	case "answered", "closed":
		return m.state.Correct
	default:
		return false
	}
}

// HandleAjax grades check dispatches and resets state on reset dispatches.
func (m *problemModule) HandleAjax(_ context.Context, dispatch string, params url.Values) (string, error) {
	switch dispatch {
	case "check":
		answer := strings.TrimSpace(params.Get("answer"))
		m.state.Attempts++
		m.state.Answer = answer
		m.state.Correct = m.grade(answer)

		m.System().Track("problem_check", map[string]interface{}{
			"location": m.Location().URL(),
			"attempts": m.state.Attempts,
			"correct":  m.state.Correct,
		})

		out, err := json.Marshal(map[string]interface{}{
			"correct":  m.state.Correct,
			"attempts": m.state.Attempts,
		})
		if err != nil {
			return "", err
		}
		return string(out), nil

	case "reset":
		m.state = problemState{}
		m.System().Track("problem_reset", map[string]interface{}{
			"location": m.Location().URL(),
		})
		return `{"success": true}`, nil

	case "show_answer":
		if !m.showAnswer() {
			return `{"answer": null}`, nil
		}
		out, err := json.Marshal(map[string]string{
			"answer": html.EscapeString(m.descriptor.definition.Answer),
		})
		if err != nil {
			return "", err
		}
		return string(out), nil

	default:
		return "", nil
	}
}

// grade compares the submitted answer against the key, case-insensitively.
func (m *problemModule) grade(answer string) bool {
	return strings.EqualFold(answer, strings.TrimSpace(m.descriptor.definition.Answer))
}

func (m *problemModule) DisplayableItems() []course.Module {
	return []course.Module{m}
}
