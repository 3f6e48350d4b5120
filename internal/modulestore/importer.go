package modulestore

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/logging"
	"github.com/coursegrid/coursegrid/internal/plugins/builtin"
	"github.com/coursegrid/coursegrid/internal/registry"
)

// courseFile is the entry point of a course directory.
const courseFile = "course.xml"

// policyFile carries metadata overrides applied after parsing.
const policyFile = "policy.yaml"

// Importer parses course directories into a Store.
type Importer struct {
	registry *registry.Registry
	store    *Store
	logger   logging.Logger

	// DefaultFactory handles XML tags with no registered content type.
	// Defaults to the raw fallback.
	DefaultFactory registry.DescriptorFactory

	// LoadErrors collects per-node failures that were substituted with
	// error descriptors during the last import.
	LoadErrors []LoadError
}

// LoadError records one content node that failed to load.
type LoadError struct {
	Location course.Location
	Message  string
	Cause    error
}

// NewImporter creates an importer feeding the given store.
func NewImporter(reg *registry.Registry, store *Store, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Importer{
		registry:       reg,
		store:          store,
		logger:         logger.WithComponent("modulestore"),
		DefaultFactory: builtin.RawFactory{},
	}
}

// ImportCourse reads course.xml from fsys, parses the whole tree through
// the registry, stores every descriptor and runs the metadata inheritance
// pass from the root. Per-node parse failures become error descriptors; a
// failure on the root itself is returned.
func (imp *Importer) ImportCourse(ctx context.Context, fsys fs.FS, org, courseID string) (course.Descriptor, error) {
	imp.LoadErrors = nil

	data, err := fs.ReadFile(fsys, courseFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", courseFile, err)
	}

	sys := &course.XMLParsingSystem{
		DescriptorSystem: &course.DescriptorSystem{
			LoadItem:    imp.store.LoadItem,
			Resources:   fsys,
			HandleError: imp.handleError,
			Logger:      imp.logger,
		},
		Org:    org,
		Course: courseID,
	}
	sys.ProcessXML = func(elem []byte) (course.Descriptor, error) {
		return imp.processXML(elem, sys)
	}

	root, err := sys.ProcessXML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing course root: %w", err)
	}

	if err := imp.applyPolicy(fsys, root); err != nil {
		return nil, err
	}

	if err := inheritAll(root); err != nil {
		return nil, fmt.Errorf("inheritance pass: %w", err)
	}

	imp.logger.Info(ctx, "course imported",
		"course", root.Location().URL(),
		"items", imp.store.Count(),
		"load_errors", len(imp.LoadErrors))

	return root, nil
}

// processXML parses one element through the registry and stores the result.
func (imp *Importer) processXML(elem []byte, sys *course.XMLParsingSystem) (course.Descriptor, error) {
	d, err := imp.registry.LoadFromXML(elem, sys, imp.DefaultFactory)
	if err != nil {
		return nil, err
	}
	imp.store.Put(d)
	return d, nil
}

// handleError substitutes an error descriptor for a node that failed to
// load, records the failure and lets the import continue.
func (imp *Importer) handleError(loc course.Location, msg string, cause error) (course.Descriptor, error) {
	imp.logger.Warn(context.Background(), cause, "substituting error node for broken content",
		"location", loc.URL(), "context", msg)
	imp.LoadErrors = append(imp.LoadErrors, LoadError{Location: loc, Message: msg, Cause: cause})

	sys := &course.DescriptorSystem{
		LoadItem: imp.store.LoadItem,
		Logger:   imp.logger,
	}
	errMsg := msg
	if cause != nil {
		errMsg = fmt.Sprintf("%s: %v", msg, cause)
	}
	d := builtin.NewErrorDescriptor(sys, loc, errMsg, "")
	imp.store.Put(d)
	return d, nil
}

// inheritAll walks the tree top-down, forcing every child load so the
// inheritance pass reaches every node. Children are cached, so the walk is
// also what makes later lazy access cheap.
func inheritAll(d course.Descriptor) error {
	children, err := d.Children()
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := inheritAll(child); err != nil {
			return err
		}
	}
	return nil
}
