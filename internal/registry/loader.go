package registry

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/coursegrid/coursegrid/internal/course"
)

// LoadFromXML instantiates the correct content type for an XML document by
// its root element tag. def, when non-nil, handles tags with no registered
// type (typically the raw fallback).
func (r *Registry) LoadFromXML(data []byte, sys *course.XMLParsingSystem, def DescriptorFactory) (course.Descriptor, error) {
	tag, err := rootTag(data)
	if err != nil {
		return nil, fmt.Errorf("reading xml root element: %w", err)
	}

	factory, err := r.Resolve(tag, def)
	if err != nil {
		return nil, err
	}

	return factory.FromXML(data, sys)
}

// LoadFromJSON instantiates the correct content type for a JSON document by
// the category of its location field.
func (r *Registry) LoadFromJSON(data []byte, sys *course.DescriptorSystem, def DescriptorFactory) (course.Descriptor, error) {
	var node JSONNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding json content: %w", err)
	}

	if node.Location.IsZero() {
		return nil, fmt.Errorf("json content has no location")
	}

	factory, err := r.Resolve(node.Location.Category, def)
	if err != nil {
		return nil, err
	}

	return factory.FromJSON(node, sys)
}

// rootTag returns the local name of the first XML start element.
func rootTag(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return "", fmt.Errorf("no start element found")
		}
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}
