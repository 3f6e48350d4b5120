package course

import (
	"fmt"

	"github.com/coursegrid/coursegrid/internal/errors"
)

// ErrBadAjaxValue builds the validation error returned when an ajax dispatch
// receives a malformed parameter.
func ErrBadAjaxValue(field, value string) error {
	return errors.NewValidationError("bad_ajax_value",
		fmt.Sprintf("invalid value %q for ajax parameter %s", value, field))
}
