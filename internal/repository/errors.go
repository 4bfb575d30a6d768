package repository

import "errors"

// ErrNotFound is returned by write operations whose target row does not exist.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

var ErrAlreadyAssigned = errors.New("technician already assigned to this property")
