// Package course defines the content data model for coursegrid: locations
// identifying content nodes, descriptors (authoring-time, student-independent
// definitions), modules (per-student runtime instantiations) and the system
// facades content objects use to call back into the host application.
package course

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Location identifies a content node within a course. It is an immutable
// identity key; all fields are value-compared.
type Location struct {
	Org      string
	Course   string
	Category string
	Name     string
	Revision string
}

const locationScheme = "i4x"

// Allowed characters for location components. Matches the identifier rules
// used by course URL keys.
var invalidLocationChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// NewLocation constructs a Location from its components.
func NewLocation(org, courseID, category, name string) Location {
	return Location{Org: org, Course: courseID, Category: category, Name: name}
}

// ParseLocation parses a location URL of the form
// i4x://org/course/category/name[@revision].
func ParseLocation(s string) (Location, error) {
	prefix := locationScheme + "://"
	if !strings.HasPrefix(s, prefix) {
		return Location{}, fmt.Errorf("location %q does not start with %s", s, prefix)
	}

	rest := s[len(prefix):]
	parts := strings.Split(rest, "/")
	if len(parts) != 4 {
		return Location{}, fmt.Errorf("location %q must have org/course/category/name", s)
	}

	loc := Location{
		Org:      parts[0],
		Course:   parts[1],
		Category: parts[2],
		Name:     parts[3],
	}

	if at := strings.Index(loc.Name, "@"); at >= 0 {
		loc.Revision = loc.Name[at+1:]
		loc.Name = loc.Name[:at]
	}

	if err := loc.Validate(); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// URL renders the location back to its canonical URL form.
func (l Location) URL() string {
	url := fmt.Sprintf("%s://%s/%s/%s/%s", locationScheme, l.Org, l.Course, l.Category, l.Name)
	if l.Revision != "" {
		url += "@" + l.Revision
	}
	return url
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return l.URL()
}

// IsZero reports whether the location is empty.
func (l Location) IsZero() bool {
	return l == Location{}
}

// Validate checks that every component uses only allowed characters.
func (l Location) Validate() error {
	for _, field := range []struct {
		name, value string
	}{
		{"org", l.Org},
		{"course", l.Course},
		{"category", l.Category},
		{"name", l.Name},
	} {
		if field.value == "" {
			return fmt.Errorf("location field %s is empty", field.name)
		}
		if invalidLocationChars.MatchString(field.value) {
			return fmt.Errorf("location field %s contains invalid characters: %q", field.name, field.value)
		}
	}
	if l.Revision != "" && invalidLocationChars.MatchString(l.Revision) {
		return fmt.Errorf("location revision contains invalid characters: %q", l.Revision)
	}
	return nil
}

var titleCaser = cases.Title(language.English)

// DisplayName derives a human-readable name from the location name when no
// display_name metadata was authored: underscores become spaces and words
// are title-cased.
func (l Location) DisplayName() string {
	name := strings.ReplaceAll(l.Name, "_", " ")
	return titleCaser.String(name)
}
