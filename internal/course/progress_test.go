package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProgressClamps(t *testing.T) {
	assert.Equal(t, Progress{Done: 2, Total: 2}, NewProgress(5, 2))
	assert.Equal(t, Progress{Done: 0, Total: 2}, NewProgress(-1, 2))
	assert.Equal(t, Progress{Done: 0, Total: 0}, NewProgress(1, -3))
}

func TestProgressAdd(t *testing.T) {
	sum := NewProgress(1, 2).Add(NewProgress(3, 4))
	assert.Equal(t, Progress{Done: 4, Total: 6}, sum)

	// Zero progress is the identity.
	assert.Equal(t, NewProgress(1, 2), NewProgress(1, 2).Add(Progress{}))
}

func TestProgressFrac(t *testing.T) {
	assert.Equal(t, 0.5, NewProgress(1, 2).Frac())
	assert.Equal(t, 0.0, Progress{}.Frac())
}

func TestProgressComplete(t *testing.T) {
	assert.True(t, NewProgress(2, 2).Complete())
	assert.False(t, NewProgress(1, 2).Complete())
	assert.False(t, Progress{}.Complete())
}

func TestProgressString(t *testing.T) {
	assert.Equal(t, "1/2", NewProgress(1, 2).String())
}

type progressModule struct {
	*BaseModule
	progress *Progress
}

func (m *progressModule) Progress() *Progress { return m.progress }

func TestSumProgress(t *testing.T) {
	sys := NewModuleSystem()
	desc := NewBaseDescriptor(nil, Location{Org: "o", Course: "c", Category: "html", Name: "n"}, nil, DescriptorOptions{})

	withProgress := func(p Progress) Module {
		return &progressModule{BaseModule: NewBaseModule(sys, desc, "{}", "{}"), progress: &p}
	}
	without := NewBaseModule(sys, desc, "{}", "{}")

	sum := SumProgress([]Module{withProgress(NewProgress(1, 2)), without, withProgress(NewProgress(1, 1))})
	assert.Equal(t, &Progress{Done: 2, Total: 3}, sum)

	assert.Nil(t, SumProgress([]Module{without}), "children with no progress notion yield nil")
	assert.Nil(t, SumProgress(nil))
}
