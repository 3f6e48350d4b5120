package modulestore

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coursegrid/coursegrid/internal/course"
)

// Policy is a course-level metadata override file: keys are
// "category/url_name" node references, values are metadata fields applied
// on top of the authored attributes. Policy values count as authored, so
// they win over inheritance and are included in exports.
type Policy map[string]map[string]string

// applyPolicy loads policy.yaml (when present) and merges its fields into
// the referenced descriptors before the inheritance pass runs.
func (imp *Importer) applyPolicy(fsys fs.FS, root course.Descriptor) error {
	data, err := fs.ReadFile(fsys, policyFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", policyFile, err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("parsing %s: %w", policyFile, err)
	}

	rootLoc := root.Location()
	for ref, fields := range policy {
		category, name, ok := strings.Cut(ref, "/")
		if !ok {
			return fmt.Errorf("policy key %q must be category/url_name", ref)
		}

		loc := course.NewLocation(rootLoc.Org, rootLoc.Course, category, name)
		d, err := imp.store.Get(loc)
		if err != nil {
			return fmt.Errorf("policy references unknown node %s: %w", loc, err)
		}

		for field, value := range fields {
			d.Metadata()[field] = value
		}
	}

	return nil
}
