package filer

import "errors"

// ErrNotFound is returned (wrapped) when a directory path or snapshot number
// has no record. Callers should test for it with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrInvalidRequest is returned (wrapped) when a request fails validation.
var ErrInvalidRequest = errors.New("invalid request")
