// Package runtime assembles module systems: the per-request dependency
// bundle handed to content modules so they can render templates, rewrite
// URLs, track events and load sibling modules without knowing the host
// application. This is where descriptors from the modulestore meet student
// state to become live modules.
package runtime

import (
	"context"
	"hash/fnv"
	"io/fs"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/logging"
	"github.com/coursegrid/coursegrid/internal/modulestore"
	"github.com/coursegrid/coursegrid/internal/renderer"
	"github.com/coursegrid/coursegrid/internal/statestore"
	"github.com/coursegrid/coursegrid/internal/tracker"
)

// Host owns the long-lived pieces a module system closes over.
type Host struct {
	Store     *modulestore.Store
	States    *statestore.Store
	Renderer  *renderer.TemplateRenderer
	Rewriter  *renderer.URLRewriter
	Tracker   *tracker.Tracker
	Resources fs.FS
	Logger    logging.Logger
	Debug     bool
}

// ModuleFor instantiates the module at loc for one student request: the
// descriptor comes from the store, state from the state store, and the
// module system's callbacks close over the student.
func (h *Host) ModuleFor(ctx context.Context, student string, loc course.Location) (course.Module, error) {
	desc, err := h.Store.Get(loc)
	if err != nil {
		return nil, err
	}

	instanceState, err := h.States.InstanceState(ctx, student, loc)
	if err != nil {
		return nil, err
	}

	sharedState := ""
	if key := desc.SharedStateKey(); key != "" {
		sharedState, err = h.States.SharedState(ctx, student, desc.Category(), key)
		if err != nil {
			return nil, err
		}
	}

	sys := h.systemFor(ctx, student, loc)
	return desc.NewModule(sys, instanceState, sharedState)
}

// systemFor builds the module system for one module instantiation. Each
// module gets its own ajax URL; the other callbacks are shared closures
// over the student.
func (h *Host) systemFor(ctx context.Context, student string, loc course.Location) *course.ModuleSystem {
	sys := course.NewModuleSystem()
	sys.AjaxURL = "/ajax/" + loc.URL()
	sys.Track = h.Tracker.FuncFor(student)
	sys.GetModule = func(childLoc course.Location) (course.Module, error) {
		return h.ModuleFor(ctx, student, childLoc)
	}
	sys.RenderTemplate = h.Renderer.Render
	sys.ReplaceURLs = h.Rewriter.Rewrite
	sys.Filestore = h.Resources
	sys.Seed = studentSeed(student)
	sys.Debug = h.Debug
	sys.Logger = h.Logger
	return sys
}

// SaveState persists a module's instance and shared state back to the
// store after a request mutated it.
func (h *Host) SaveState(ctx context.Context, student string, m course.Module) error {
	instanceState, err := m.InstanceState()
	if err != nil {
		return err
	}
	if err := h.States.SaveInstanceState(ctx, student, m.Location(), instanceState); err != nil {
		return err
	}

	if key := m.Descriptor().SharedStateKey(); key != "" {
		sharedState, err := m.SharedState()
		if err != nil {
			return err
		}
		if err := h.States.SaveSharedState(ctx, student, m.Category(), key, sharedState); err != nil {
			return err
		}
	}

	return nil
}

// studentSeed derives a stable randomization seed from the student id.
func studentSeed(student string) int64 {
	if student == "" {
		return 0
	}
	hash := fnv.New64a()
	hash.Write([]byte(student))
	return int64(hash.Sum64())
}
