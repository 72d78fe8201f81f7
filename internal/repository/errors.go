package repository

import "errors"

// ErrStatusConflict is returned when a conditional write finds the row in a
// status that does not allow the change.
var ErrStatusConflict = errors.New("post status does not allow this change")
