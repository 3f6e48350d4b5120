package modulestore

import (
	"fmt"
	"io"

	"github.com/coursegrid/coursegrid/internal/course"
)

// ExportCourse serializes a course tree back to XML. The output parses back
// into an equal tree with the same importer scope; inherited metadata is
// omitted so re-import reconstructs it from the ancestors. Assumes single
// parentage (no node appears twice in the course), so nesting children as
// XML children is safe.
func ExportCourse(root course.Descriptor, w io.Writer) error {
	if root.Category() != "course" {
		return fmt.Errorf("export root must be a course, got %s", root.Category())
	}

	data, err := root.ExportXML()
	if err != nil {
		return fmt.Errorf("exporting %s: %w", root.Location(), err)
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}
