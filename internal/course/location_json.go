package course

import (
	"encoding/json"
	"fmt"
)

// locationJSON is the object form of a location in JSON course documents.
type locationJSON struct {
	Org      string `json:"org"`
	Course   string `json:"course"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Revision string `json:"revision,omitempty"`
}

// MarshalJSON renders the location in object form.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(locationJSON{
		Org:      l.Org,
		Course:   l.Course,
		Category: l.Category,
		Name:     l.Name,
		Revision: l.Revision,
	})
}

// UnmarshalJSON accepts either the object form or the URL string form.
func (l *Location) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var url string
		if err := json.Unmarshal(data, &url); err != nil {
			return err
		}
		parsed, err := ParseLocation(url)
		if err != nil {
			return fmt.Errorf("parsing location url: %w", err)
		}
		*l = parsed
		return nil
	}

	var obj locationJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*l = Location{
		Org:      obj.Org,
		Course:   obj.Course,
		Category: obj.Category,
		Name:     obj.Name,
		Revision: obj.Revision,
	}
	return l.Validate()
}
