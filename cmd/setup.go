package cmd

import (
	"context"
	"os"

	"github.com/coursegrid/coursegrid/internal/config"
	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/logging"
	"github.com/coursegrid/coursegrid/internal/modulestore"
	"github.com/coursegrid/coursegrid/internal/plugins"
	"github.com/coursegrid/coursegrid/internal/plugins/builtin"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

// newContentRegistry builds a registry with the builtin content types
// installed.
func newContentRegistry(logger logging.Logger) (*registry.Registry, *plugins.Manager, error) {
	reg := registry.New(logger)
	manager := plugins.NewManager(reg)
	if err := manager.Register(builtin.Plugin()); err != nil {
		return nil, nil, err
	}
	return reg, manager, nil
}

// importCourse loads the configured course directory into a fresh store and
// returns the course root. Load errors are substituted with error nodes and
// reported by the importer.
func importCourse(ctx context.Context, cfg *config.Config, reg *registry.Registry, logger logging.Logger) (*modulestore.Store, *modulestore.Importer, course.Descriptor, error) {
	store := modulestore.NewStore()
	importer := modulestore.NewImporter(reg, store, logger)

	root, err := importer.ImportCourse(ctx, os.DirFS(cfg.Course.Dir), cfg.Course.Org, cfg.Course.Course)
	if err != nil {
		return nil, nil, nil, err
	}
	return store, importer, root, nil
}
