package builtin

import (
	"github.com/coursegrid/coursegrid/internal/plugins"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// Version of the builtin content-type set.
const Version = "1.0.0"

// contentPlugin bundles the builtin factories as a plugin.
type contentPlugin struct{}

func (contentPlugin) Name() string    { return "builtin" }
func (contentPlugin) Version() string { return Version }
func (contentPlugin) Description() string {
	return "Standard course content types: course, chapter, sequential, vertical, html, video, problem, raw, error"
}

func (contentPlugin) Factories() []registry.DescriptorFactory {
	return []registry.DescriptorFactory{
		CourseFactory{},
		ChapterFactory{},
		SequenceFactory{},
		VerticalFactory{},
		HTMLFactory{},
		VideoFactory{},
		ProblemFactory{},
		RawFactory{},
		ErrorFactory{},
	}
}

// Plugin returns the builtin content-type plugin.
func Plugin() plugins.Plugin {
	return contentPlugin{}
}
