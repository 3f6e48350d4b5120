package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/errors"
)

// stubFactory is a minimal DescriptorFactory for registry tests.
type stubFactory struct {
	category string
	id       string
}

func (f stubFactory) Category() string { return f.category }

func (f stubFactory) FromXML(data []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	loc := course.Location{Org: "test", Course: "test", Category: f.category, Name: f.id}
	return course.NewBaseDescriptor(sys.DescriptorSystem, loc,
		&course.Definition{Data: string(data)}, course.DescriptorOptions{}), nil
}

func (f stubFactory) FromJSON(node JSONNode, sys *course.DescriptorSystem) (course.Descriptor, error) {
	return course.NewBaseDescriptor(sys, node.Location,
		&course.Definition{Data: node.Definition.Data},
		course.DescriptorOptions{Metadata: node.Metadata, SharedStateKey: node.SharedStateKey}), nil
}

func TestResolve(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "problem", id: "a"})

	factory, err := reg.Resolve("problem", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", factory.(stubFactory).id)
}

func TestResolveCaseInsensitive(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "Problem", id: "a"})

	factory, err := reg.Resolve("PROBLEM", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", factory.(stubFactory).id)
}

func TestResolveFirstRegistrationWins(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "problem", id: "a"})
	reg.Register("pluginB", stubFactory{category: "problem", id: "b"})

	factory, err := reg.Resolve("problem", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", factory.(stubFactory).id)
}

func TestResolveMissing(t *testing.T) {
	reg := New(nil)

	_, err := reg.Resolve("nonexistent", nil)
	require.Error(t, err)
	assert.True(t, errors.IsModuleMissing(err))
}

func TestResolveDefault(t *testing.T) {
	reg := New(nil)
	fallback := stubFactory{category: "raw", id: "fallback"}

	factory, err := reg.Resolve("nonexistent", fallback)
	require.NoError(t, err)
	assert.Equal(t, "fallback", factory.(stubFactory).id)
}

func TestResolveCaches(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "problem", id: "a"})

	first, err := reg.Resolve("problem", nil)
	require.NoError(t, err)

	// Later registrations cannot displace a cached resolution.
	reg.Register("pluginB", stubFactory{category: "problem", id: "b"})
	second, err := reg.Resolve("problem", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCategoriesAndCount(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "problem"})
	reg.Register("pluginA", stubFactory{category: "video"})
	reg.Register("pluginB", stubFactory{category: "problem"})

	assert.Equal(t, 2, reg.Count())
	assert.ElementsMatch(t, []string{"problem", "video"}, reg.Categories())
	assert.Len(t, reg.Factories(), 2)
}

func TestLoadFromXML(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "problem", id: "a"})

	sys := &course.XMLParsingSystem{
		DescriptorSystem: course.NewDescriptorSystem(nil, nil),
		Org:              "test",
		Course:           "test",
	}

	desc, err := reg.LoadFromXML([]byte(`<problem name="p1">x</problem>`), sys, nil)
	require.NoError(t, err)
	assert.Equal(t, "problem", desc.Category())

	// Comments before the root element are skipped.
	desc, err = reg.LoadFromXML([]byte("<!-- hi --><problem/>"), sys, nil)
	require.NoError(t, err)
	assert.Equal(t, "problem", desc.Category())

	_, err = reg.LoadFromXML([]byte(`<unknown/>`), sys, nil)
	assert.True(t, errors.IsModuleMissing(err))

	_, err = reg.LoadFromXML([]byte(``), sys, nil)
	assert.Error(t, err)
}

func TestLoadFromJSON(t *testing.T) {
	reg := New(nil)
	reg.Register("pluginA", stubFactory{category: "problem", id: "a"})

	sys := course.NewDescriptorSystem(nil, nil)

	doc := []byte(`{
		"location": "i4x://MITx/6.002x/problem/ps1",
		"definition": {"data": "<problem/>"},
		"metadata": {"graded": "true"},
		"shared_state_key": "ps1"
	}`)

	desc, err := reg.LoadFromJSON(doc, sys, nil)
	require.NoError(t, err)
	assert.Equal(t, "problem", desc.Category())
	assert.Equal(t, "<problem/>", desc.Definition().Data)
	assert.Equal(t, "true", desc.Metadata()["graded"])
	assert.Equal(t, "ps1", desc.SharedStateKey())

	_, err = reg.LoadFromJSON([]byte(`{"definition":{}}`), sys, nil)
	assert.Error(t, err, "missing location is rejected")

	_, err = reg.LoadFromJSON([]byte(`{not json`), sys, nil)
	assert.Error(t, err)
}
