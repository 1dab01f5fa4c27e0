package patients

import "errors"

// ErrNotFound indicates no patient matched the lookup.
var ErrNotFound = errors.New("patients: patient not found")
